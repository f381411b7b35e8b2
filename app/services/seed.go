package services

import (
	"context"
	"fmt"

	"teamboard/app/models"
)

// SeedMembers is the initial roster.
func SeedMembers() []models.MemberInput {
	return []models.MemberInput{
		{Name: "정형근", Grade: models.GradeManager, Gender: models.GenderMale},
		{Name: "이범승", Grade: models.GradeManager, Gender: models.GenderMale},
		{Name: "조하늘", Grade: models.GradeManager, Gender: models.GenderMale},
		{Name: "양성수", Grade: models.GradeManager, Gender: models.GenderMale},
	}
}

// SeedPosts are the welcome posts, oldest first.
func SeedPosts() []models.PostInput {
	return []models.PostInput{
		{
			Title:   "2024년 1분기 목표 설정",
			Author:  "이범승",
			Content: "새해를 맞아 1분기 목표를 설정해보았습니다.\n\n1. 고객 데이터 분석 플랫폼 구축\n2. 실시간 대시보드 시스템 개발\n3. ML 모델 정확도 10% 향상\n4. 팀 역량 강화 교육 프로그램 운영\n\n모든 팀원이 함께 노력해서 목표를 달성해봅시다!",
		},
		{
			Title:   "신입 멤버 환영합니다! 🎉",
			Author:  "정형근",
			Content: "새롭게 DA 팀에 합류하신 양성수님을 환영합니다.\n\n앞으로 함께 성장해 나가면서 좋은 성과를 만들어가길 바랍니다!",
		},
		{
			Title:   "프로젝트 진행 상황 공유",
			Author:  "조하늘",
			Content: "현재 진행 중인 프로젝트의 상황을 공유드립니다.\n\n진행률: 65% 완료\n\n주요 성과:\n- 데이터 분석 모델 구축 완료\n- 대시보드 UI/UX 디자인 완료\n- API 개발 80% 진행",
		},
		{
			Title:   "DA 팀 회의 안내",
			Author:  "이범승",
			Content: "내일 오후 2시에 회의실에서 팀 회의가 있습니다.\n\n회의 안건:\n1. Q1 프로젝트 진행 상황 점검\n2. 새로운 멤버 온보딩 계획\n3. 팀 워크샵 일정 조율\n\n참석 가능 여부를 회신해주세요.",
		},
		{
			Title:   "첫 번째 게시글입니다",
			Author:  "정형근",
			Content: "안녕하세요! 첫 번째 게시글을 작성합니다.\n\n이곳은 DA 팀 게시판입니다. 다양한 정보를 공유하고 소통할 수 있는 공간으로 활용해보세요.",
		},
	}
}

// Seed inserts the initial roster in one batch and the welcome posts one by
// one, so the newest-first board shows them in their original order.
func Seed(ctx context.Context, members *MemberService, posts *PostService) (int, int, error) {
	added, err := members.AddMany(ctx, SeedMembers())
	if err != nil {
		return 0, 0, err
	}
	n := 0
	for _, p := range SeedPosts() {
		if _, err := posts.Add(ctx, p); err != nil {
			return len(added), n, fmt.Errorf("seed post %q: %w", p.Title, err)
		}
		n++
	}
	return len(added), n, nil
}
