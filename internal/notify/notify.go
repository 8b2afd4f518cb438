// Package notify defines the notification capability the reminder engine
// delivers through.
package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Permission is the user's answer to the notification prompt.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Action is a button shown with a notification.
type Action struct {
	ID    string `json:"action"`
	Title string `json:"title"`
}

// Notification is one message handed to a Platform.
type Notification struct {
	Title              string
	Body               string
	Icon               string
	Badge              string
	Vibrate            []int
	Tag                string
	Renotify           bool
	RequireInteraction bool
	Actions            []Action
}

// Platform delivers notifications.
type Platform interface {
	Permission(ctx context.Context) Permission
	// RequestPermission prompts once and returns the resulting permission.
	RequestPermission(ctx context.Context) (Permission, error)
	Show(ctx context.Context, n Notification) error
}

// LogPlatform writes notifications to the logger. It is always granted.
type LogPlatform struct {
	logger *zap.Logger
}

// NewLogPlatform creates a platform that only logs.
func NewLogPlatform(logger *zap.Logger) *LogPlatform {
	return &LogPlatform{logger: logger}
}

func (p *LogPlatform) Permission(context.Context) Permission { return PermissionGranted }

func (p *LogPlatform) RequestPermission(context.Context) (Permission, error) {
	return PermissionGranted, nil
}

func (p *LogPlatform) Show(_ context.Context, n Notification) error {
	p.logger.Info("Notification",
		zap.String("title", n.Title),
		zap.String("body", n.Body),
		zap.String("tag", n.Tag),
		zap.Bool("require_interaction", n.RequireInteraction))
	return nil
}

// Recorder is an in-memory Platform that keeps every shown notification.
type Recorder struct {
	mu         sync.Mutex
	permission Permission
	// Answer is what RequestPermission resolves to.
	Answer   Permission
	Requests int
	Shown    []Notification
	ShowErr  error
	// RequestErr fails RequestPermission and leaves the permission unchanged.
	RequestErr error
}

// NewRecorder creates a recorder starting at the given permission.
func NewRecorder(p Permission) *Recorder {
	return &Recorder{permission: p, Answer: PermissionGranted}
}

func (r *Recorder) Permission(context.Context) Permission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.permission
}

func (r *Recorder) RequestPermission(context.Context) (Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Requests++
	if r.RequestErr != nil {
		return r.permission, r.RequestErr
	}
	r.permission = r.Answer
	return r.permission, nil
}

func (r *Recorder) Show(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ShowErr != nil {
		return r.ShowErr
	}
	r.Shown = append(r.Shown, n)
	return nil
}

// Notifications returns a copy of what was shown.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.Shown...)
}
