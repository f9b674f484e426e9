package sp

import (
	"strings"

	"cargas/config"
)

// ListResolver decides which lists the local proxy may reach. A list is
// addressed by its role (origins, loads, ...), an extra_lists alias or its
// SharePoint name, ignoring case.
type ListResolver struct {
	names map[string]string
}

func NewListResolver(cfg config.SharePointConfig) *ListResolver {
	r := &ListResolver{names: make(map[string]string)}
	for alias, list := range cfg.ListNames() {
		if list == "" {
			continue
		}
		r.names[strings.ToLower(alias)] = list
		r.names[strings.ToLower(list)] = list
	}
	return r
}

func (r *ListResolver) Resolve(name string) (string, bool) {
	list, ok := r.names[strings.ToLower(strings.TrimSpace(name))]
	return list, ok
}
