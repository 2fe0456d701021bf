package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sandbox-pool/infra/packages/api/internal/accounts"
	"github.com/sandbox-pool/infra/packages/api/internal/api"
	"github.com/sandbox-pool/infra/packages/api/internal/identity"
)

// requireAdmin guards every account route.
func (a *APIStore) requireAdmin(c *gin.Context) bool {
	if !identity.MustUser(c).IsAdmin() {
		a.forbidden(c, "administer the account pool")

		return false
	}

	return true
}

func (a *APIStore) PostAccounts(c *gin.Context) {
	if !a.requireAdmin(c) {
		return
	}

	var body api.PostAccountsJSONRequestBody
	if !a.bindJSON(c, &body) {
		return
	}

	account, err := a.accounts.Register(c.Request.Context(), body)
	if err != nil {
		a.sendError(c, err)

		return
	}

	c.JSON(http.StatusCreated, account)
}

func (a *APIStore) GetAccounts(c *gin.Context, params api.GetAccountsParams) {
	if !a.requireAdmin(c) {
		return
	}

	page, err := a.accounts.List(c.Request.Context(), accounts.ListRequest{
		Status:         params.Status,
		PageIdentifier: params.PageIdentifier,
		PageSize:       pageSize(params.PageSize),
	})
	if err != nil {
		a.sendError(c, err)

		return
	}

	items := make([]api.Account, 0, len(page.Items))
	for _, account := range page.Items {
		items = append(items, *account)
	}

	c.JSON(http.StatusOK, api.AccountList{Items: items, NextPageIdentifier: page.NextPageIdentifier})
}

func (a *APIStore) GetAccountsAccountID(c *gin.Context, accountID api.AccountID) {
	if !a.requireAdmin(c) {
		return
	}

	account, err := a.accounts.Get(c.Request.Context(), accountID)
	if err != nil {
		a.sendError(c, err)

		return
	}

	c.JSON(http.StatusOK, account)
}

func (a *APIStore) PostAccountsAccountIDQuarantine(c *gin.Context, accountID api.AccountID) {
	if !a.requireAdmin(c) {
		return
	}

	var body api.PostAccountsAccountIDQuarantineJSONRequestBody
	if !a.bindJSON(c, &body) {
		return
	}

	account, err := a.accounts.Quarantine(c.Request.Context(), accountID, body.Reason)
	if err != nil {
		a.sendError(c, err)

		return
	}

	c.JSON(http.StatusOK, account)
}

func (a *APIStore) PostAccountsAccountIDRetryCleanup(c *gin.Context, accountID api.AccountID) {
	if !a.requireAdmin(c) {
		return
	}

	account, err := a.accounts.RetryCleanup(c.Request.Context(), accountID)
	if err != nil {
		a.sendError(c, err)

		return
	}

	c.JSON(http.StatusOK, account)
}

// PostAccountsAccountIDCleanupResult is called by the cleanup orchestration after each run.
func (a *APIStore) PostAccountsAccountIDCleanupResult(c *gin.Context, accountID api.AccountID) {
	if !a.requireAdmin(c) {
		return
	}

	var body api.PostAccountsAccountIDCleanupResultJSONRequestBody
	if !a.bindJSON(c, &body) {
		return
	}

	account, err := a.accounts.CompleteCleanup(c.Request.Context(), accountID, body)
	if err != nil {
		a.sendError(c, err)

		return
	}

	c.JSON(http.StatusOK, account)
}

func (a *APIStore) DeleteAccountsAccountID(c *gin.Context, accountID api.AccountID) {
	if !a.requireAdmin(c) {
		return
	}

	if err := a.accounts.Deregister(c.Request.Context(), accountID); err != nil {
		a.sendError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}
