package health

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DependencyStatus is one dependency's entry in a Report.
type DependencyStatus struct {
	Name string
	Result
}

// Report is the reduced outcome of a Checker run.
type Report struct {
	Healthy      bool
	Dependencies []DependencyStatus
}

// Status renders the overall outcome as "healthy" or "unhealthy".
func (r Report) Status() string {
	return statusString(r.Healthy)
}

// Dependency returns the named dependency's status, if it was checked.
func (r Report) Dependency(name string) (DependencyStatus, bool) {
	for _, dep := range r.Dependencies {
		if dep.Name == name {
			return dep, true
		}
	}
	return DependencyStatus{}, false
}

// MarshalJSON renders the report as a flat object: the overall "status"
// followed by one key per dependency in probe order.
func (r Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"status":`)
	writeJSONString(&buf, r.Status())
	for _, dep := range r.Dependencies {
		if dep.Name == "status" {
			return nil, fmt.Errorf("dependency name %q collides with the overall status key", dep.Name)
		}
		buf.WriteByte(',')
		writeJSONString(&buf, dep.Name)
		buf.WriteByte(':')
		writeJSONString(&buf, dep.Status())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	// json.Marshal of a string cannot fail.
	b, _ := json.Marshal(s)
	buf.Write(b)
}
