package api

import (
	"context"
	"encoding/json"

	"github.com/zkwatch/pkg/auth"
	"github.com/zkwatch/pkg/db"
)

// Agent lifecycle actions. Agents are rows in the hosted store scoped to the
// calling user; the dashboard drives their lifecycle through these actions.

func (s *Server) agentActions() map[string]handlerFunc {
	return map[string]handlerFunc{
		"deploy": s.deployAgent,
		"stop":   s.stopAgent,
		"delete": s.deleteAgent,
		"status": s.agentStatus,
	}
}

func (s *Server) deployAgent(ctx context.Context, user *auth.User, payload json.RawMessage) (interface{}, error) {
	var req struct {
		Name      string          `json:"name"`
		AgentType string          `json:"agent_type"`
		Config    json.RawMessage `json:"config"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, errBadRequest("invalid_json", "malformed deploy request")
	}
	if req.Name == "" {
		return nil, errBadRequest("missing_name", "agent name is required")
	}
	if req.AgentType == "" {
		req.AgentType = "whale_monitor"
	}

	agent := db.Agent{
		UserID:    user.ID,
		Name:      req.Name,
		AgentType: req.AgentType,
		Status:    "active",
	}
	if len(req.Config) > 0 {
		agent.Config = string(req.Config)
	}
	return s.store.InsertAgent(ctx, agent)
}

func (s *Server) stopAgent(ctx context.Context, user *auth.User, payload json.RawMessage) (interface{}, error) {
	var req struct {
		AgentID int64 `json:"agent_id"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.AgentID == 0 {
		return nil, errBadRequest("missing_agent_id", "agent_id is required")
	}
	if err := s.store.UpdateAgentStatus(ctx, req.AgentID, user.ID, "stopped"); err != nil {
		return nil, err
	}
	return map[string]interface{}{"id": req.AgentID, "status": "stopped"}, nil
}

func (s *Server) deleteAgent(ctx context.Context, user *auth.User, payload json.RawMessage) (interface{}, error) {
	var req struct {
		AgentID int64 `json:"agent_id"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.AgentID == 0 {
		return nil, errBadRequest("missing_agent_id", "agent_id is required")
	}
	if err := s.store.DeleteAgent(ctx, req.AgentID, user.ID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"id": req.AgentID, "deleted": true}, nil
}

func (s *Server) agentStatus(ctx context.Context, user *auth.User, _ json.RawMessage) (interface{}, error) {
	agents, err := s.store.ListAgents(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if agents == nil {
		agents = []db.Agent{}
	}
	return agents, nil
}
