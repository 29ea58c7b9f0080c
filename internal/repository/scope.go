package repository

import "github.com/luizfprog/betesportes-api/internal/auth"

// Owned resources are stored with a nullable owner_id referencing app_user.
// Reads join the owner row so the visible set can be restricted to one
// company, and so write checks get the owner's company without a second
// query.

// ownerScopeClause translates a read scope into a WHERE fragment over the
// joined owner alias u.  An all scope adds nothing; a company scope pins
// u.company_name.  Callers must short-circuit empty scopes before building
// a query.
func ownerScopeClause(scope auth.Scope) (string, []interface{}) {
	if scope.All {
		return "", nil
	}
	return " WHERE u.company_name = ?", []interface{}{scope.Company}
}
