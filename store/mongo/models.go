package mongo

import (
	"fmt"
	"time"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/id"
	"github.com/raynmakers/vigil/job"
	"github.com/raynmakers/vigil/video"
)

// ── Job model ─────────────────────────────────────────────────────

type jobModel struct {
	ID         string         `bson:"_id"`
	Type       string         `bson:"job_type"`
	Status     string         `bson:"status"`
	RetryCount int            `bson:"retry_count"`
	Inputs     map[string]any `bson:"inputs,omitempty"`
	CreatedAt  time.Time      `bson:"created_at"`
	UpdatedAt  time.Time      `bson:"updated_at"`
}

func toJobModel(j *job.Job) *jobModel {
	return &jobModel{
		ID:         j.ID,
		Type:       j.Type.String(),
		Status:     string(j.Status),
		RetryCount: j.RetryCount,
		Inputs:     j.Inputs,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}
}

func fromJobModel(m *jobModel) *job.Job {
	return &job.Job{
		Entity: vigil.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         m.ID,
		Type:       job.Type(m.Type),
		Status:     job.Status(m.Status),
		RetryCount: m.RetryCount,
		Inputs:     m.Inputs,
	}
}

// ── Video model ───────────────────────────────────────────────────

type videoModel struct {
	ID        string    `bson:"_id"`
	Platform  string    `bson:"platform"`
	Title     string    `bson:"title,omitempty"`
	Channel   string    `bson:"channel,omitempty"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toVideoModel(v *video.Video) *videoModel {
	return &videoModel{
		ID:        v.ID,
		Platform:  v.Platform,
		Title:     v.Title,
		Channel:   v.Channel,
		Status:    string(v.Status),
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func fromVideoModel(m *videoModel) *video.Video {
	return &video.Video{
		Entity: vigil.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:       m.ID,
		Platform: m.Platform,
		Title:    m.Title,
		Channel:  m.Channel,
		Status:   video.Status(m.Status),
	}
}

// ── Dead letter model ─────────────────────────────────────────────

type deadLetterModel struct {
	ID            string            `bson:"_id"`
	JobID         string            `bson:"job_id"`
	JobType       string            `bson:"job_type"`
	Severity      string            `bson:"severity"`
	Priority      string            `bson:"recovery_priority"`
	ErrorType     string            `bson:"error_type"`
	ErrorMessage  string            `bson:"error_message"`
	RetryCount    int               `bson:"retry_count"`
	LastAttemptAt *time.Time        `bson:"last_attempt_at,omitempty"`
	Inputs        map[string]any    `bson:"inputs,omitempty"`
	Metadata      map[string]any    `bson:"metadata,omitempty"`
	Hints         map[string]string `bson:"recovery_hints,omitempty"`
	RoutedAt      time.Time         `bson:"routed_at"`
	Attempts      int               `bson:"processing_attempts"`
	ReplayedAt    *time.Time        `bson:"replayed_at,omitempty"`
	CreatedAt     time.Time         `bson:"created_at"`
	UpdatedAt     time.Time         `bson:"updated_at"`
}

func toDeadLetterModel(e *dlq.Entry) *deadLetterModel {
	return &deadLetterModel{
		ID:            e.ID.String(),
		JobID:         e.JobID,
		JobType:       e.JobType.String(),
		Severity:      string(e.Severity),
		Priority:      string(e.Priority),
		ErrorType:     e.Failure.ErrorType,
		ErrorMessage:  e.Failure.ErrorMessage,
		RetryCount:    e.Failure.RetryCount,
		LastAttemptAt: e.Failure.LastAttemptAt,
		Inputs:        e.Failure.Inputs,
		Metadata:      e.Metadata,
		Hints:         e.Hints,
		RoutedAt:      e.RoutedAt,
		Attempts:      e.Attempts,
		ReplayedAt:    e.ReplayedAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func fromDeadLetterModel(m *deadLetterModel) (*dlq.Entry, error) {
	parsedID, err := id.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("vigil/mongo: parse dead letter id %q: %w", m.ID, err)
	}

	return &dlq.Entry{
		Entity: vigil.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:       parsedID,
		JobID:    m.JobID,
		JobType:  job.Type(m.JobType),
		Severity: dlq.Severity(m.Severity),
		Priority: dlq.Priority(m.Priority),
		Failure: dlq.FailureContext{
			ErrorType:     m.ErrorType,
			ErrorMessage:  m.ErrorMessage,
			RetryCount:    m.RetryCount,
			LastAttemptAt: m.LastAttemptAt,
			Inputs:        m.Inputs,
		},
		Metadata:   m.Metadata,
		Hints:      m.Hints,
		RoutedAt:   m.RoutedAt,
		Attempts:   m.Attempts,
		ReplayedAt: m.ReplayedAt,
	}, nil
}
