package lockfile

type Lock struct {
	Name            string                `json:"name"`
	LockfileVersion int                   `json:"lockfileVersion"`
	Repositories    map[string]Repository `json:"repositories"`
	Packages        map[string]Package    `json:"packages"`
}

type Repository struct {
	URL       string `json:"url"`
	Integrity string `json:"integrity"`
}

type Package struct {
	Name       string   `json:"-"`
	Repository string   `json:"repository"`
	Version    string   `json:"version"`
	Resolved   string   `json:"resolved"`
	Integrity  string   `json:"integrity"`
	Size       uint64   `json:"size"`
	Direct     bool     `json:"direct,omitempty"`
	Provides   []string `json:"provides,omitempty"`
}
