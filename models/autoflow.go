package models

import (
	"encoding/json"
	"strings"
	"time"
)

/************************************************
/**** MARK: FLOW TRIGGERS / ACTIONS ****/
/************************************************/
const FLOW_MATCH_EXACT = "exact"
const FLOW_MATCH_CONTAINS = "contains"

const FLOW_ACTION_SEND_TEXT = "send_text"
const FLOW_ACTION_SEND_IMAGE = "send_image"
const FLOW_ACTION_SEND_DOCUMENT = "send_document"
const FLOW_ACTION_SEND_CATALOG = "send_catalog"
const FLOW_ACTION_ASSIGN_AGENT = "assign_agent"
const FLOW_ACTION_ADD_TAG = "add_tag"

// FlowTrigger matches an inbound message against a keyword set.
type FlowTrigger struct {
	Keywords      []string `json:"keywords"`
	MatchType     string   `json:"match_type"` // exact or contains
	CaseSensitive bool     `json:"case_sensitive"`
}

// FlowAction is one step of a flow. Actions form an ordered list with
// optional chaining metadata, but execution currently stops at the first
// action (see engine/flows.go).
type FlowAction struct {
	Type         string `json:"type"`
	Text         string `json:"text,omitempty"`
	Category     string `json:"category,omitempty"`
	MediaURL     string `json:"media_url,omitempty"`
	Caption      string `json:"caption,omitempty"`
	Tag          string `json:"tag,omitempty"`
	AgentID      int64  `json:"agent_id,omitempty"`
	SetState     string `json:"set_state,omitempty"`
	NextActionID int64  `json:"next_action_id,omitempty"`
}

// AutoFlow is a tenant-configured trigger -> action rule, evaluated before
// any built-in responder. Triggers and Actions are JSON columns.
type AutoFlow struct {
	ID       int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	TenantID int64  `gorm:"not null;index" json:"tenant_id"`
	Name     string `gorm:"not null" json:"name" form:"name"`
	Active   bool   `gorm:"not null;default:true;index" json:"active" form:"active"`
	Position int    `gorm:"not null;default:0" json:"position" form:"position"`

	Triggers string `gorm:"type:text" json:"triggers"` // JSON []FlowTrigger
	Actions  string `gorm:"type:text" json:"actions"`  // JSON []FlowAction

	// Derived counters, written by the router only.
	TriggerCount    int        `gorm:"default:0" json:"trigger_count"`
	LastTriggeredAt *time.Time `json:"last_triggered_at"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (f AutoFlow) TriggerList() []FlowTrigger {
	var out []FlowTrigger
	if strings.TrimSpace(f.Triggers) == "" {
		return out
	}
	_ = json.Unmarshal([]byte(f.Triggers), &out)
	return out
}

func (f AutoFlow) ActionList() []FlowAction {
	var out []FlowAction
	if strings.TrimSpace(f.Actions) == "" {
		return out
	}
	_ = json.Unmarshal([]byte(f.Actions), &out)
	return out
}

// Matches reports whether any trigger of the flow matches the message.
// Matching folds case unless the trigger is case-sensitive; "contains"
// does substring lookup, "exact" compares the whole message.
func (f AutoFlow) Matches(text string) bool {
	for _, tr := range f.TriggerList() {
		msg := text
		if !tr.CaseSensitive {
			msg = strings.ToUpper(msg)
		}
		for _, kw := range tr.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			if !tr.CaseSensitive {
				kw = strings.ToUpper(kw)
			}
			if tr.MatchType == FLOW_MATCH_EXACT {
				if msg == kw {
					return true
				}
				continue
			}
			if strings.Contains(msg, kw) {
				return true
			}
		}
	}
	return false
}
