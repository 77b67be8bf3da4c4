package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/BuzzLyutic/taskboard-api/internal/model"
)

// Тексты ошибок показываются фронтенду как есть, менять нельзя.

var (
	nameRe  = regexp.MustCompile(`^[A-Za-z\s]+$`)
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Register validates registration input. Rules run in a fixed order per field
// (name, email, password) so the error list is deterministic.
func Register(name, email, password string) []string {
	var errs []string
	errs = append(errs, checkName(name)...)
	errs = append(errs, checkEmail(email)...)
	errs = append(errs, checkPassword(password)...)
	return errs
}

func Login(email, password string) []string {
	var errs []string
	errs = append(errs, checkEmail(email)...)
	if password == "" {
		errs = append(errs, "Password is required")
	}
	return errs
}

// TaskInput carries raw field values; a nil pointer means the field was absent
// from the request body.
type TaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *string
}

// Task validates input for task creation: title and description are mandatory,
// the rest only when present.
func Task(in TaskInput, now time.Time) []string {
	var errs []string
	errs = append(errs, checkTitle(deref(in.Title))...)
	errs = append(errs, checkDescription(deref(in.Description))...)
	errs = append(errs, checkOptional(in, now)...)
	return errs
}

// TaskPatch validates a partial update: поле, отсутствующее во входе,
// не проверяется вовсе (omitted => unchanged).
func TaskPatch(in TaskInput, now time.Time) []string {
	var errs []string
	if in.Title != nil {
		errs = append(errs, checkTitle(*in.Title)...)
	}
	if in.Description != nil {
		errs = append(errs, checkDescription(*in.Description)...)
	}
	errs = append(errs, checkOptional(in, now)...)
	return errs
}

func checkOptional(in TaskInput, now time.Time) []string {
	var errs []string
	if in.Status != nil && !model.Status(*in.Status).Valid() {
		errs = append(errs, "Status must be one of: pending, in-progress, completed")
	}
	if in.Priority != nil && !model.Priority(*in.Priority).Valid() {
		errs = append(errs, "Priority must be one of: low, medium, high")
	}
	if in.DueDate != nil {
		date, err := ParseDueDate(*in.DueDate)
		if err != nil {
			errs = append(errs, "Please provide a valid due date")
		} else if !date.After(now) {
			errs = append(errs, "Due date must be in the future")
		}
	}
	return errs
}

func checkName(name string) []string {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return []string{"Name is required"}
	case utf8.RuneCountInString(trimmed) < 2:
		return []string{"Name must be at least 2 characters"}
	case utf8.RuneCountInString(trimmed) > 50:
		return []string{"Name cannot exceed 50 characters"}
	case !nameRe.MatchString(trimmed):
		return []string{"Name can only contain letters and spaces"}
	}
	return nil
}

func checkEmail(email string) []string {
	trimmed := strings.TrimSpace(email)
	switch {
	case trimmed == "":
		return []string{"Email is required"}
	case !emailRe.MatchString(trimmed):
		return []string{"Please provide a valid email"}
	}
	return nil
}

func checkPassword(password string) []string {
	if password == "" {
		return []string{"Password is required"}
	}
	if utf8.RuneCountInString(password) < 6 {
		return []string{"Password must be at least 6 characters"}
	}

	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return []string{"Password must contain at least one uppercase letter, one lowercase letter, and one number"}
	}
	return nil
}

func checkTitle(title string) []string {
	trimmed := strings.TrimSpace(title)
	switch {
	case trimmed == "":
		return []string{"Task title is required"}
	case utf8.RuneCountInString(trimmed) < 3:
		return []string{"Title must be at least 3 characters"}
	case utf8.RuneCountInString(trimmed) > 100:
		return []string{"Title cannot exceed 100 characters"}
	}
	return nil
}

func checkDescription(description string) []string {
	trimmed := strings.TrimSpace(description)
	switch {
	case trimmed == "":
		return []string{"Task description is required"}
	case utf8.RuneCountInString(trimmed) < 10:
		return []string{"Description must be at least 10 characters"}
	case utf8.RuneCountInString(trimmed) > 500:
		return []string{"Description cannot exceed 500 characters"}
	}
	return nil
}

// ParseDueDate accepts RFC3339 timestamps and bare dates, the two shapes the
// frontend date picker produces.
func ParseDueDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
