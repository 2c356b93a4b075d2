package pharos

import (
	"encoding/json"
	"log/slog"

	"github.com/avzcrypto/pharos-stats/internal/domain/entity"
)

// apiEnvelope is the outer response shape of every points API endpoint.
// Only code == 0 is treated as success.
type apiEnvelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

// profilePayload is the data half of a /user/profile response. The flexible
// field types absorb upstream type drift; coercion to clean domain values
// happens in toProfile.
type profilePayload struct {
	UserInfo struct {
		TotalPoints any `json:"TotalPoints"`
		CreateTime  any `json:"CreateTime"`
	} `json:"user_info"`
}

// toProfile coerces the wire payload to a clean profile. Non-numeric point
// totals become 0; a missing or non-string create time stays empty.
func (p *profilePayload) toProfile() *entity.UserProfile {
	profile := &entity.UserProfile{}
	if points, ok := p.UserInfo.TotalPoints.(float64); ok {
		profile.TotalPoints = points
	}
	if created, ok := p.UserInfo.CreateTime.(string); ok {
		profile.MemberSince = created
	}
	return profile
}

// tasksPayload is the data half of a /user/tasks response. Task records are
// decoded individually so one malformed record never aborts the batch.
type tasksPayload struct {
	UserTasks []json.RawMessage `json:"user_tasks"`
}

type userTask struct {
	TaskID        int64   `json:"TaskId"`
	CompleteTimes float64 `json:"CompleteTimes"`
}

func (p *tasksPayload) toTasks(logger *slog.Logger) []entity.TaskCompletion {
	tasks := make([]entity.TaskCompletion, 0, len(p.UserTasks))
	for _, raw := range p.UserTasks {
		var task userTask
		if err := json.Unmarshal(raw, &task); err != nil {
			logger.Debug("skipping malformed task record", "error", err)
			continue
		}
		tasks = append(tasks, entity.TaskCompletion{
			TaskID: task.TaskID,
			Count:  int64(task.CompleteTimes),
		})
	}
	return tasks
}
