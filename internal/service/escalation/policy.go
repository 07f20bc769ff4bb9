package escalation

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/mental-buddy/backend/internal/analysis/crisis"
	"github.com/zhouzirui/mental-buddy/backend/internal/model/lookup"
)

// Action 是危机处理要求调用方采取的动作。
type Action string

const (
	ActionImmediateIntervention Action = "immediate_intervention"
	ActionProvideSupport        Action = "provide_support"
	ActionContinueConversation  Action = "continue_conversation"
)

// Priority 是危机处理的优先级。
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
)

const (
	genericEmergencyLine = "Contact local emergency services"
	genericCrisisLine    = "Contact local crisis line"
	genericTextSupport   = "Not available in your region, please call instead"
	genericMoreResources = "Contact local mental health services"
)

// Intervention 是结构化的危机干预结果。
type Intervention struct {
	Text     string    `json:"response"`
	Action   Action    `json:"actionRequired"`
	Priority Priority  `json:"priority"`
	Resource *Resource `json:"resources,omitempty"`

	// Location 与 Line 记录资源解析走的路径
	Location lookup.Outcome `json:"-"`
	Line     lookup.Outcome `json:"-"`
}

// Policy 根据危机等级生成干预回复。无副作用。
type Policy struct {
	table *ResourceTable
}

// NewPolicy creates a policy over table; nil uses the embedded table.
func NewPolicy(table *ResourceTable) *Policy {
	if table == nil {
		table = DefaultResourceTable()
	}
	return &Policy{table: table}
}

// Table exposes the resource table.
func (p *Policy) Table() *ResourceTable {
	return p.table
}

// HandleCrisis 生成对应等级的干预。low/none 不查资源表。
func (p *Policy) HandleCrisis(tier crisis.Tier, location, username string) Intervention {
	var out Intervention
	switch tier {
	case crisis.High:
		out = p.high(location)
	case crisis.Medium:
		out = p.medium(location)
	default:
		out = Intervention{
			Text:     lowText,
			Action:   ActionContinueConversation,
			Priority: PriorityNormal,
		}
	}
	out.Text = strings.ReplaceAll(out.Text, "{username}", username)
	return out
}

func (p *Policy) high(location string) Intervention {
	res := p.table.Lookup(location)
	resource := res.OrElse(Resource{})
	line := resource.CrisisLine()

	text := fmt.Sprintf(highText,
		p.table.Emergency,
		line.OrElse(genericEmergencyLine),
		orDefault(resource.CrisisText, genericTextSupport),
	)

	return Intervention{
		Text:     text,
		Action:   ActionImmediateIntervention,
		Priority: PriorityCritical,
		Resource: resourcePtr(res),
		Location: res.Outcome,
		Line:     line.Outcome,
	}
}

func (p *Policy) medium(location string) Intervention {
	res := p.table.Lookup(location)
	resource := res.OrElse(Resource{})
	line := resource.CrisisLine()

	text := fmt.Sprintf(mediumText,
		line.OrElse(genericCrisisLine),
		orDefault(resource.CrisisText, genericTextSupport),
		orDefault(resource.URL, genericMoreResources),
	)

	return Intervention{
		Text:     text,
		Action:   ActionProvideSupport,
		Priority: PriorityHigh,
		Resource: resourcePtr(res),
		Location: res.Outcome,
		Line:     line.Outcome,
	}
}

func resourcePtr(res lookup.Resolution[Resource]) *Resource {
	if !res.Ok() {
		return nil
	}
	r := res.Value
	return &r
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

const highText = `{username}, I'm really concerned about you right now. Your safety is the most important thing.

Please reach out for immediate help:

Emergency: %s
Crisis Line: %s
Text Support: %s

You don't have to go through this alone. There are people who want to help you.

If you're in immediate danger, please call emergency services right now.`

const mediumText = `I'm concerned about how you're feeling right now, {username}. It takes courage to reach out, and I'm glad you're here.

Here are some resources that might help:

Talk to someone: %s
Text support: %s
More resources: %s

Would you like to talk about what's been making you feel this way? I'm here to listen.`

const lowText = `I can hear that you're going through a tough time. It's important that you reached out.

Remember that difficult feelings are temporary, even when they don't feel that way.

Would you like to talk more about what's happening? I'm here to listen and support you.`
