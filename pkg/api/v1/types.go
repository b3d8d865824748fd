package v1

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

const (
	GroupVersion = "pacsync.dcas.dev/v1"
	KindMirror   = "Mirror"
)

type MirrorSpec struct {
	// Repositories are listed in priority order.
	Repositories []Repository `json:"repositories,omitempty"`
	Packages     []string     `json:"packages,omitempty"`
	PackageDir   string       `json:"packageDir,omitempty"`
	DatabaseDir  string       `json:"databaseDir,omitempty"`
}

type Repository struct {
	URL string `json:"url"`
}

type Mirror struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec MirrorSpec `json:"spec"`
}
