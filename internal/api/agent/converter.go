package agent

import "github.com/futig/docchat/internal/entity"

func toSessionDTO(s *entity.Session) *entity.SessionDTO {
	return &entity.SessionDTO{
		ID:        s.ID,
		Mode:      s.Mode,
		History:   s.History,
		ThreadID:  s.ThreadID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toReplyDTO(sessionID string, r *entity.AgentReply) *entity.AgentReplyDTO {
	return &entity.AgentReplyDTO{
		SessionID: sessionID,
		ThreadID:  r.ThreadID,
		Response:  r.Text,
	}
}
