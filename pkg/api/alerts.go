package api

import (
	"context"
	"encoding/json"

	"github.com/zkwatch/pkg/auth"
	"github.com/zkwatch/pkg/db"
)

func (s *Server) alertActions() map[string]handlerFunc {
	return map[string]handlerFunc{
		"get_alerts":           s.getAlerts,
		"mark_read":            s.markAlertRead,
		"mark_all_read":        s.markAllAlertsRead,
		"create_alert":         s.createAlert,
		"delete_alert":         s.deleteAlert,
		"get_unread_count":     s.getUnreadCount,
		"generate_test_alerts": s.generateTestAlerts,
	}
}

func (s *Server) getAlerts(ctx context.Context, user *auth.User, payload json.RawMessage) (interface{}, error) {
	var req struct {
		Limit int `json:"limit"`
	}
	json.Unmarshal(payload, &req)

	alerts, err := s.store.ListAlerts(ctx, user.ID, req.Limit)
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []db.Alert{}
	}
	return alerts, nil
}

func (s *Server) markAlertRead(ctx context.Context, user *auth.User, payload json.RawMessage) (interface{}, error) {
	var req struct {
		AlertID int64 `json:"alert_id"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.AlertID == 0 {
		return nil, errBadRequest("missing_alert_id", "alert_id is required")
	}
	if err := s.store.MarkAlertRead(ctx, req.AlertID, user.ID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"id": req.AlertID, "read": true}, nil
}

func (s *Server) markAllAlertsRead(ctx context.Context, user *auth.User, _ json.RawMessage) (interface{}, error) {
	if err := s.store.MarkAllAlertsRead(ctx, user.ID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"marked_all": true}, nil
}

func (s *Server) createAlert(ctx context.Context, user *auth.User, payload json.RawMessage) (interface{}, error) {
	var req struct {
		AlertType string `json:"alert_type"`
		Severity  string `json:"severity"`
		Title     string `json:"title"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, errBadRequest("invalid_json", "malformed create_alert request")
	}
	if req.Title == "" {
		return nil, errBadRequest("missing_title", "alert title is required")
	}
	if req.AlertType == "" {
		req.AlertType = "custom"
	}
	if req.Severity == "" {
		req.Severity = "info"
	}

	return s.store.InsertAlert(ctx, db.Alert{
		UserID:    user.ID,
		AlertType: req.AlertType,
		Severity:  req.Severity,
		Title:     req.Title,
		Message:   req.Message,
	})
}

func (s *Server) deleteAlert(ctx context.Context, user *auth.User, payload json.RawMessage) (interface{}, error) {
	var req struct {
		AlertID int64 `json:"alert_id"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.AlertID == 0 {
		return nil, errBadRequest("missing_alert_id", "alert_id is required")
	}
	if err := s.store.DeleteAlert(ctx, req.AlertID, user.ID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"id": req.AlertID, "deleted": true}, nil
}

func (s *Server) getUnreadCount(ctx context.Context, user *auth.User, _ json.RawMessage) (interface{}, error) {
	count, err := s.store.CountUnreadAlerts(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"count": count}, nil
}

func (s *Server) generateTestAlerts(ctx context.Context, user *auth.User, _ json.RawMessage) (interface{}, error) {
	samples := []db.Alert{
		{UserID: user.ID, AlertType: "whale_movement", Severity: "critical",
			Title: "Critical whale movement on ethereum",
			Message: "A transaction over $10M was detected moving to a known bridge."},
		{UserID: user.ID, AlertType: "whale_movement", Severity: "warning",
			Title: "Large DEX interaction on bsc",
			Message: "A whale-scored transaction hit the PancakeSwap router."},
		{UserID: user.ID, AlertType: "agent_status", Severity: "info",
			Title: "Monitoring agent active",
			Message: "Your whale monitor agent completed its latest scan cycle."},
	}

	created := make([]db.Alert, 0, len(samples))
	for _, a := range samples {
		row, err := s.store.InsertAlert(ctx, a)
		if err != nil {
			return nil, err
		}
		created = append(created, *row)
	}
	return created, nil
}
