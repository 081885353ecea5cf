package memo

import "fmt"

// Backend names accepted by OpenRepo.
const (
	BackendMap   = "map"
	BackendMemDB = "memdb"
)

// OpenRepo builds the named backend, wrapped in a read cache when cacheSize > 0.
func OpenRepo(backend string, cacheSize int64) (Repo, error) {
	var (
		repo Repo
		err  error
	)
	switch backend {
	case BackendMap, "":
		repo = NewMapRepo()
	case BackendMemDB:
		repo, err = NewMemDBRepo()
	default:
		return nil, fmt.Errorf("memo: unknown backend %q", backend)
	}
	if err != nil {
		return nil, err
	}
	if cacheSize > 0 {
		return NewCachedRepo(repo, cacheSize)
	}
	return repo, nil
}
