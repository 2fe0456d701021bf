package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sandbox-pool/infra/packages/api/internal/api"
	"github.com/sandbox-pool/infra/packages/api/internal/identity"
	"github.com/sandbox-pool/infra/packages/api/internal/leases"
	sharedutils "github.com/sandbox-pool/infra/packages/shared/pkg/utils"
)

func leaseResponse(lease *leases.Lease) api.LeaseResponse {
	return api.LeaseResponse{LeaseId: lease.LeaseID(), Lease: *lease}
}

func (a *APIStore) PostLeases(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "create-lease-handler")
	defer span.End()

	user := identity.MustUser(c)

	var body api.PostLeasesJSONRequestBody
	if !a.bindJSON(c, &body) {
		return
	}

	lease, err := a.leases.Create(ctx, user, body)
	if err != nil {
		a.sendError(c, err)

		return
	}

	c.JSON(http.StatusCreated, leaseResponse(lease))
}

func (a *APIStore) GetLeases(c *gin.Context, params api.GetLeasesParams) {
	user := identity.MustUser(c)

	req := leases.ListRequest{
		Status:         params.Status,
		PageIdentifier: params.PageIdentifier,
		PageSize:       pageSize(params.PageSize),
	}

	// Plain users only ever see their own leases.
	switch {
	case !user.CanApprove():
		req.UserEmail = user.Email
	case params.UserEmail != nil:
		req.UserEmail = *params.UserEmail
	}

	page, err := a.leases.List(c.Request.Context(), req)
	if err != nil {
		a.sendError(c, err)

		return
	}

	items := make([]api.LeaseResponse, 0, len(page.Items))
	for _, lease := range page.Items {
		items = append(items, leaseResponse(lease))
	}

	c.JSON(http.StatusOK, api.LeaseList{Items: items, NextPageIdentifier: page.NextPageIdentifier})
}

// loadLease fetches the lease and checks the caller may act on it.
func (a *APIStore) loadLease(c *gin.Context, leaseID api.LeaseID) (*leases.Lease, bool) {
	lease, err := a.leases.Get(c.Request.Context(), leaseID)
	if err != nil {
		a.sendError(c, err)

		return nil, false
	}

	if !identity.MustUser(c).CanActOn(lease.UserEmail) {
		a.forbidden(c, "access this lease")

		return nil, false
	}

	return lease, true
}

func (a *APIStore) GetLeasesLeaseID(c *gin.Context, leaseID api.LeaseID) {
	lease, ok := a.loadLease(c, leaseID)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, leaseResponse(lease))
}

func (a *APIStore) PostLeasesLeaseIDApprove(c *gin.Context, leaseID api.LeaseID) {
	user := identity.MustUser(c)
	if !user.CanApprove() {
		a.forbidden(c, "approve leases")

		return
	}

	lease, err := a.leases.Approve(c.Request.Context(), leaseID, user.Email)
	if err != nil {
		a.sendError(c, err)

		return
	}

	c.JSON(http.StatusOK, leaseResponse(lease))
}

func (a *APIStore) PostLeasesLeaseIDDeny(c *gin.Context, leaseID api.LeaseID) {
	user := identity.MustUser(c)
	if !user.CanApprove() {
		a.forbidden(c, "deny leases")

		return
	}

	lease, err := a.leases.Deny(c.Request.Context(), leaseID, user.Email)
	if err != nil {
		a.sendError(c, err)

		return
	}

	c.JSON(http.StatusOK, leaseResponse(lease))
}

func (a *APIStore) PostLeasesLeaseIDTerminate(c *gin.Context, leaseID api.LeaseID) {
	ctx := c.Request.Context()

	if _, ok := a.loadLease(c, leaseID); !ok {
		return
	}

	var body api.PostLeasesLeaseIDTerminateJSONRequestBody
	if c.Request.ContentLength > 0 && !a.bindJSON(c, &body) {
		return
	}

	result, err := a.leases.Terminate(ctx, leaseID, sharedutils.FromPtr(body.Reason))
	if err != nil {
		a.sendError(c, err)

		return
	}

	response := api.TerminateLeaseResponse{LeaseId: result.Lease.LeaseID(), Lease: *result.Lease}
	if result.CleanupErr != nil {
		// Already reported by the registry, the lease stays terminated.
		response.CleanupError = sharedutils.ToPtr(result.CleanupErr.Error())
	}

	c.JSON(http.StatusOK, response)
}

func (a *APIStore) PostLeasesLeaseIDFreeze(c *gin.Context, leaseID api.LeaseID) {
	if !identity.MustUser(c).CanApprove() {
		a.forbidden(c, "freeze leases")

		return
	}

	var body api.PostLeasesLeaseIDFreezeJSONRequestBody
	if !a.bindJSON(c, &body) {
		return
	}

	result, err := a.leases.Freeze(c.Request.Context(), leaseID, body.Reason)
	if err != nil {
		a.sendError(c, err)

		return
	}

	response := api.FreezeLeaseResponse{LeaseId: result.Lease.LeaseID(), Lease: *result.Lease}
	if result.AccountErr != nil {
		// Already reported by the registry, the lease stays frozen.
		response.AccountError = sharedutils.ToPtr(result.AccountErr.Error())
	}

	c.JSON(http.StatusOK, response)
}

func (a *APIStore) PostLeasesLeaseIDUnfreeze(c *gin.Context, leaseID api.LeaseID) {
	lease, err := a.leases.Unfreeze(c.Request.Context(), leaseID, identity.MustUser(c))
	if err != nil {
		a.sendError(c, err)

		return
	}

	c.JSON(http.StatusOK, leaseResponse(lease))
}

// PutLeasesLeaseIDSpend is called by the cost ingestion job.
func (a *APIStore) PutLeasesLeaseIDSpend(c *gin.Context, leaseID api.LeaseID) {
	if !identity.MustUser(c).IsAdmin() {
		a.forbidden(c, "report lease spend")

		return
	}

	var body api.PutLeasesLeaseIDSpendJSONRequestBody
	if !a.bindJSON(c, &body) {
		return
	}

	lease, err := a.leases.UpdateSpend(c.Request.Context(), leaseID, body.TotalCostAccrued)
	if err != nil {
		a.sendError(c, err)

		return
	}

	c.JSON(http.StatusOK, leaseResponse(lease))
}
