package adapters

import (
	"context"

	declrepo "callcenter_backend/internal/declarations/repository"
)

// DeclarationStatusAdapter lets the cdr domain annotate call lists with
// declaration state. It implements cdr/service.DeclarationStatusReader.
type DeclarationStatusAdapter struct {
	repo declrepo.Reader
}

// NewDeclarationStatusAdapter creates a new adapter over the declarations repository.
func NewDeclarationStatusAdapter(repo declrepo.Reader) *DeclarationStatusAdapter {
	return &DeclarationStatusAdapter{repo: repo}
}

func (a *DeclarationStatusAdapter) StatusesByDedupKeys(ctx context.Context, keys []string) (map[string]string, error) {
	return a.repo.StatusesByDedupKeys(ctx, keys)
}
