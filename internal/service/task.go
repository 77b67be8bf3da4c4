package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BuzzLyutic/taskboard-api/internal/model"
	"github.com/BuzzLyutic/taskboard-api/internal/policy"
	"github.com/BuzzLyutic/taskboard-api/internal/repo"
	"github.com/BuzzLyutic/taskboard-api/internal/validation"
)

// TaskInput - сырые поля запроса; nil означает, что поле не передавали.
type TaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *string
	AssignedTo  *int64
}

type ListQuery struct {
	Status   string
	Priority string
	Search   string
	Page     int
	Limit    int
}

type Pagination struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Count      int `json:"count"`
	TotalTasks int `json:"totalTasks"`
}

type TaskService struct {
	tasks repo.TaskRepository
	users repo.UserRepository
}

func NewTaskService(tasks repo.TaskRepository, users repo.UserRepository) *TaskService {
	return &TaskService{tasks: tasks, users: users}
}

func validationInput(in TaskInput) validation.TaskInput {
	return validation.TaskInput{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
	}
}

// checkAssignee проверяет, что назначаемый пользователь существует.
// Несуществующий id - это ошибка валидации, а не 404 по задаче.
func (s *TaskService) checkAssignee(ctx context.Context, id int64) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, repo.ErrorNotFound) {
			return &ValidationError{Fields: []string{"Assigned user not found"}}
		}
		return err
	}
	return nil
}

func (s *TaskService) Create(ctx context.Context, p model.Principal, in TaskInput) (model.Task, error) {
	if errs := validation.Task(validationInput(in), time.Now()); len(errs) > 0 {
		return model.Task{}, &ValidationError{Fields: errs}
	}

	assignedTo := p.ID // по умолчанию задача назначается на создателя
	if in.AssignedTo != nil {
		if err := s.checkAssignee(ctx, *in.AssignedTo); err != nil {
			return model.Task{}, err
		}
		assignedTo = *in.AssignedTo
	}

	t := model.Task{
		Title:       strings.TrimSpace(*in.Title),
		Description: strings.TrimSpace(*in.Description),
		Status:      model.StatusPending,
		Priority:    model.PriorityMedium,
		CreatedBy:   p.ID,
		AssignedTo:  assignedTo,
	}
	if in.Status != nil {
		t.Status = model.Status(*in.Status)
	}
	if in.Priority != nil {
		t.Priority = model.Priority(*in.Priority)
	}
	if in.DueDate != nil {
		due, err := validation.ParseDueDate(*in.DueDate)
		if err != nil {
			return model.Task{}, &ValidationError{Fields: []string{"Please provide a valid due date"}}
		}
		t.DueDate = &due
	}

	return s.tasks.Create(ctx, t)
}

func (s *TaskService) Get(ctx context.Context, p model.Principal, id int64) (model.Task, error) {
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		return t, err
	}
	if !policy.CanAccess(p, t, policy.OpRead) {
		// Чужая задача неотличима от несуществующей.
		return model.Task{}, repo.ErrorNotFound
	}
	return t, nil
}

func (s *TaskService) List(ctx context.Context, p model.Principal, q ListQuery) ([]model.Task, Pagination, error) {
	filter := policy.Scope(p)
	if q.Status != "" {
		st := model.Status(q.Status)
		filter.Status = &st
	}
	if q.Priority != "" {
		pr := model.Priority(q.Priority)
		filter.Priority = &pr
	}
	filter.Search = q.Search

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	tasks, err := s.tasks.List(ctx, filter, (page-1)*limit, limit)
	if err != nil {
		return nil, Pagination{}, err
	}
	total, err := s.tasks.Count(ctx, filter)
	if err != nil {
		return nil, Pagination{}, err
	}

	pagination := Pagination{
		Current:    page,
		Total:      (total + limit - 1) / limit,
		Count:      len(tasks),
		TotalTasks: total,
	}
	return tasks, pagination, nil
}

func (s *TaskService) Update(ctx context.Context, p model.Principal, id int64, in TaskInput) (model.Task, error) {
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		return t, err
	}
	if !policy.CanAccess(p, t, policy.OpUpdate) {
		return model.Task{}, repo.ErrorNotFound
	}

	if errs := validation.TaskPatch(validationInput(in), time.Now()); len(errs) > 0 {
		return model.Task{}, &ValidationError{Fields: errs}
	}

	if in.AssignedTo != nil && *in.AssignedTo != t.AssignedTo {
		if err := s.checkAssignee(ctx, *in.AssignedTo); err != nil {
			return model.Task{}, err
		}
	}

	patch := model.TaskPatch{AssignedTo: in.AssignedTo}
	if in.Title != nil {
		v := strings.TrimSpace(*in.Title)
		patch.Title = &v
	}
	if in.Description != nil {
		v := strings.TrimSpace(*in.Description)
		patch.Description = &v
	}
	if in.Status != nil {
		v := model.Status(*in.Status)
		patch.Status = &v
	}
	if in.Priority != nil {
		v := model.Priority(*in.Priority)
		patch.Priority = &v
	}
	if in.DueDate != nil {
		due, err := validation.ParseDueDate(*in.DueDate)
		if err != nil {
			return model.Task{}, &ValidationError{Fields: []string{"Please provide a valid due date"}}
		}
		patch.DueDate = &due
	}

	if patch.Empty() {
		return t, nil
	}
	return s.tasks.Update(ctx, id, patch)
}

func (s *TaskService) Delete(ctx context.Context, p model.Principal, id int64) error {
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanAccess(p, t, policy.OpDelete) {
		return repo.ErrorNotFound
	}
	return s.tasks.Delete(ctx, id)
}

func (s *TaskService) GetStats(ctx context.Context) (repo.Stats, error) {
	return s.tasks.GetStats(ctx)
}
