package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleTeacher is a regular teacher account.
	UserRoleTeacher UserRole = "teacher"
	// UserRoleAdmin can review access requests and feedback.
	UserRoleAdmin UserRole = "admin"
)

// User represents an account that can sign in.
type User struct {
	ID           int64
	Email        string
	SchoolName   string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// RequestStatus is the approval state of an access request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
)

// AccessRequest is a stored request to use the generator, keyed by e-mail.
type AccessRequest struct {
	Email       string
	Description string
	Status      RequestStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TrainingRequest asks for a training session for a school.
type TrainingRequest struct {
	ID          int64
	Email       string
	Description string
	Status      RequestStatus
	CreatedAt   time.Time
}

// Feedback is a message left by a user for the maintainers.
type Feedback struct {
	ID        int64
	UserID    *int64
	Name      string
	Message   string
	CreatedAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

// TaxonomyID names a cognitive classification scheme.
type TaxonomyID string

const (
	TaxonomyRTTI TaxonomyID = "RTTI"
	TaxonomyKTI  TaxonomyID = "KTI"
)

// Weight is a labelled percentage.
type Weight struct {
	Label   string `json:"label"`
	Percent int    `json:"percent"`
}

// TestConfiguration is the immutable snapshot sent to the generator.
type TestConfiguration struct {
	Taxonomy          TaxonomyID `json:"taxonomy"`
	Subject           string     `json:"subject"`
	Level             string     `json:"level"`
	Topics            string     `json:"topics"`
	LearningGoals     string     `json:"learning_goals"`
	Distribution      []Weight   `json:"distribution"`
	Duration          int        `json:"duration"`
	QuestionCount     int        `json:"question_count"`
	QuestionTypes     string     `json:"question_types"`
	LanguageLevel     string     `json:"language_level"`
	ExtraRequirements string     `json:"extra_requirements"`
}

// QuestionType discriminates how a question is answered.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "Multiple Choice"
	QuestionOpen           QuestionType = "Open"
	QuestionOther          QuestionType = "Other"
)

// Question is a single generated exam question.
type Question struct {
	ID            int          `json:"id"`
	Text          string       `json:"text"`
	TaxonomyLabel string       `json:"taxonomyLabel"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	Points        int          `json:"points"`
}

// AnswerKeyItem is the model answer for one question.
type AnswerKeyItem struct {
	QuestionID  int    `json:"questionId"`
	Answer      string `json:"answer"`
	Criteria    string `json:"criteria,omitempty"`
	Explanation string `json:"explanation"`
}

// MatrixRow counts questions per taxonomy label for one topic.
type MatrixRow struct {
	Topic  string         `json:"topic"`
	Counts map[string]int `json:"counts"`
}

// GoalMapping links a learning goal to the questions covering it.
type GoalMapping struct {
	Goal        string `json:"goal"`
	QuestionIDs []int  `json:"questionIds"`
}

// GeneratedTest is the structured exam returned by the generator.
type GeneratedTest struct {
	Title                string          `json:"title"`
	Taxonomy             TaxonomyID      `json:"taxonomy"`
	Introduction         string          `json:"introduction"`
	Questions            []Question      `json:"questions"`
	Matrix               []MatrixRow     `json:"matrix"`
	Answers              []AnswerKeyItem `json:"answers"`
	GoalMapping          []GoalMapping   `json:"goalMapping"`
	AnalysisInstructions string          `json:"analysisInstructions"`
}

// Source is a cited web page backing a topic suggestion.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Suggestion is the result of a topic research call.
type Suggestion struct {
	Topics  string   `json:"topics"`
	Sources []Source `json:"sources"`
	Failed  bool     `json:"-"`
}

// ServerConfig holds runtime parameters set via flags.
type ServerConfig struct {
	BasePath          string        // URL prefix for sub-path deployments (e.g. "/nl")
	SecureCookies     bool          // Set Secure flag on cookies (disable for local dev)
	ApprovalTimeout   time.Duration // ceiling for the approval lookup
	GenerationTimeout time.Duration
}
