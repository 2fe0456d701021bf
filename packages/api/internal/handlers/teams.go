package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sandbox-pool/infra/packages/api/internal/api"
	"github.com/sandbox-pool/infra/packages/api/internal/identity"
	"github.com/sandbox-pool/infra/packages/api/internal/teams"
)

func (a *APIStore) PostTeams(c *gin.Context) {
	var body api.PostTeamsJSONRequestBody
	if !a.bindJSON(c, &body) {
		return
	}

	team, err := a.teams.Create(c.Request.Context(), body.Name, identity.MustUser(c).Email)
	if err != nil {
		a.sendError(c, err)

		return
	}

	c.JSON(http.StatusCreated, team)
}

func (a *APIStore) GetTeamsTeamID(c *gin.Context, teamID api.TeamID) {
	team, ok := a.loadTeam(c, teamID, false)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, team)
}

func (a *APIStore) PostTeamsTeamIDMembers(c *gin.Context, teamID api.TeamID) {
	if _, ok := a.loadTeam(c, teamID, true); !ok {
		return
	}

	var body api.PostTeamsTeamIDMembersJSONRequestBody
	if !a.bindJSON(c, &body) {
		return
	}

	team, err := a.teams.AddMember(c.Request.Context(), teamID, body.Email)
	if err != nil {
		a.sendError(c, err)

		return
	}

	c.JSON(http.StatusOK, team)
}

func (a *APIStore) DeleteTeamsTeamIDMembersEmail(c *gin.Context, teamID api.TeamID, email string) {
	if _, ok := a.loadTeam(c, teamID, true); !ok {
		return
	}

	team, err := a.teams.RemoveMember(c.Request.Context(), teamID, email)
	if err != nil {
		a.sendError(c, err)

		return
	}

	c.JSON(http.StatusOK, team)
}

// loadTeam fetches the team. Members may read it, only the owner or an admin may change it.
func (a *APIStore) loadTeam(c *gin.Context, teamID string, manage bool) (*teams.Team, bool) {
	team, err := a.teams.Get(c.Request.Context(), teamID)
	if err != nil {
		a.sendError(c, err)

		return nil, false
	}

	user := identity.MustUser(c)

	allowed := user.IsAdmin() || team.IsOwner(user.Email)
	if !manage {
		allowed = allowed || team.HasMember(user.Email)
	}

	if !allowed {
		a.forbidden(c, "access this team")

		return nil, false
	}

	return team, true
}
