package controllers

import (
	"net/http"

	"teamboard/app/dashboard"
	"teamboard/app/models"
	"teamboard/app/services"
)

// MemberController serves the roster.
type MemberController struct {
	members *services.MemberService
	dash    *dashboard.Dashboard
	guard   *dashboard.Guard
}

// NewMemberController creates a new MemberController
func NewMemberController(members *services.MemberService, dash *dashboard.Dashboard, guard *dashboard.Guard) *MemberController {
	return &MemberController{members: members, dash: dash, guard: guard}
}

// memberDetail is a member with its display fields.
type memberDetail struct {
	models.Member
	Initial string         `json:"initial"`
	Fields  []models.Field `json:"fields"`
}

func detailOf(m models.Member) memberDetail {
	return memberDetail{Member: m, Initial: m.Initial(), Fields: m.Fields()}
}

// Index refreshes and returns the roster. A failed refresh still returns
// the previous list, marked stale.
func (mc *MemberController) Index(w http.ResponseWriter, r *http.Request) {
	view := mc.dash.RefreshMembers(r.Context())
	sendView(w, view)
}

// Create adds one member. A second submission while the first is running
// is rejected.
func (mc *MemberController) Create(w http.ResponseWriter, r *http.Request) {
	var in models.MemberInput
	if err := decode(r, &in); err != nil {
		sendError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := in.Validate(); err != nil {
		fail(w, err, nil)
		return
	}

	var member *models.Member
	err := mc.guard.Do("add-member", func() error {
		var err error
		member, err = mc.members.Add(r.Context(), in)
		return err
	})
	if err != nil {
		fail(w, err, nil)
		return
	}
	mc.dash.RefreshMembers(r.Context())
	sendJSON(w, http.StatusCreated, detailOf(*member))
}

// CreateMany adds several members in one batch.
func (mc *MemberController) CreateMany(w http.ResponseWriter, r *http.Request) {
	var in []models.MemberInput
	if err := decode(r, &in); err != nil {
		sendError(w, http.StatusBadRequest, err.Error(), []models.Member{})
		return
	}

	var members []models.Member
	err := mc.guard.Do("add-members", func() error {
		var err error
		members, err = mc.members.AddMany(r.Context(), in)
		return err
	})
	if err != nil {
		fail(w, err, []models.Member{})
		return
	}
	mc.dash.RefreshMembers(r.Context())
	sendJSON(w, http.StatusCreated, members)
}

// Show returns one member with its display fields.
func (mc *MemberController) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	member, err := mc.members.Get(r.Context(), id)
	if err != nil {
		fail(w, err, nil)
		return
	}
	sendJSON(w, http.StatusOK, detailOf(*member))
}

// sendView writes a cached list. A list that never loaded is an error; a
// stale one is returned with its error message.
func sendView[T any](w http.ResponseWriter, view dashboard.View[T]) {
	if view.Error == "" {
		sendJSON(w, http.StatusOK, view)
		return
	}
	status := http.StatusBadGateway
	if view.Stale {
		status = http.StatusOK
	}
	sendError(w, status, view.Error, view)
}
