package v1

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

// DebianizeSpec carries field overrides for the packaging pass. Every
// field is optional; unset fields fall back to the built-in defaults or
// the environment.
type DebianizeSpec struct {
	MaintainerName   string `json:"maintainerName,omitempty"`
	MaintainerEmail  string `json:"maintainerEmail,omitempty"`
	Team             string `json:"team,omitempty"`
	Section          string `json:"section,omitempty"`
	StandardsVersion string `json:"standardsVersion,omitempty"`
}

// Debianize is the on-disk configuration document.
type Debianize struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec DebianizeSpec `json:"spec"`
}
