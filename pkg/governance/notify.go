package governance

import "github.com/golang/glog"

// DocumentationNotifier receives fire-and-forget signals that a system's
// compliance documentation should be regenerated. Delivery failure must
// never roll back the governance transaction that triggered it, so the
// interface has no error return.
type DocumentationNotifier interface {
	NotifyDocumentationRegenerate(systemID string)
}

// LogNotifier is the default notifier; it only logs the signal. Deployments
// replace it with a queue- or webhook-backed implementation.
type LogNotifier struct{}

// NotifyDocumentationRegenerate logs the regeneration signal.
func (LogNotifier) NotifyDocumentationRegenerate(systemID string) {
	glog.Infof("documentation regeneration requested for system %s", systemID)
}

// NoopNotifier drops every signal; used in tests.
type NoopNotifier struct{}

// NotifyDocumentationRegenerate does nothing.
func (NoopNotifier) NotifyDocumentationRegenerate(string) {}
