package policy

import "github.com/BuzzLyutic/taskboard-api/internal/model"

// Op - операция над задачей, для которой проверяется доступ.
type Op int

const (
	OpRead Op = iota
	OpUpdate
	OpDelete
)

func (op Op) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Scope возвращает фильтр перечисления задач, видимых принципалу.
// Админ видит всё, остальные - только созданные ими или назначенные на них.
func Scope(p model.Principal) model.TaskFilter {
	switch p.Role {
	case model.RoleAdmin:
		return model.TaskFilter{}
	default:
		id := p.ID
		return model.TaskFilter{OwnerID: &id}
	}
}

// CanAccess решает, разрешена ли принципалу операция op над задачей t.
// Создатель может всё, назначенный - только читать, админ может всё.
func CanAccess(p model.Principal, t model.Task, op Op) bool {
	switch p.Role {
	case model.RoleAdmin:
		return true
	case model.RoleUser:
	default:
		// Роль ограничена CHECK-констрейнтом в БД; всё незнакомое
		// трактуем как обычного пользователя, без привилегий.
	}

	if t.CreatedBy == p.ID {
		return true
	}
	return op == OpRead && t.AssignedTo == p.ID
}
