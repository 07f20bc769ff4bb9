package insights

import (
	"github.com/zhouzirui/mental-buddy/backend/internal/service/escalation"
)

type ImmediateHelp struct {
	Emergency  string `json:"emergency"`
	CrisisLine string `json:"crisis_hotline,omitempty"`
	CrisisText string `json:"crisis_text,omitempty"`
	Note       string `json:"note"`
}

type RegionalResource struct {
	Code    string `json:"code"`
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Text    string `json:"text,omitempty"`
	Website string `json:"website,omitempty"`
}

type OnlineResource struct {
	Name        string `json:"name"`
	Website     string `json:"website"`
	Description string `json:"description"`
}

// EmergencyResources 是 /api/emergency-resources 的响应体。
type EmergencyResources struct {
	ImmediateHelp ImmediateHelp      `json:"immediate_help"`
	Regional      []RegionalResource `json:"regional_resources"`
	Online        []OnlineResource   `json:"online_resources"`
	Disclaimer    string             `json:"disclaimer"`
}

var onlineResources = []OnlineResource{
	{Name: "7 Cups", Website: "https://7cups.com", Description: "Free emotional support"},
	{Name: "BetterHelp", Website: "https://betterhelp.com", Description: "Professional online therapy"},
	{Name: "Headspace", Website: "https://headspace.com", Description: "Meditation and mindfulness"},
}

// BuildEmergencyResources renders the resource table, with the default
// location's lines as immediate help.
func BuildEmergencyResources(table *escalation.ResourceTable) EmergencyResources {
	if table == nil {
		table = escalation.DefaultResourceTable()
	}

	immediate := ImmediateHelp{
		Emergency: table.Emergency,
		Note:      "If you are in immediate danger, call " + table.Emergency + " right now.",
	}
	if home := table.Lookup(table.DefaultLocation); home.Ok() {
		if line := home.Value.CrisisLine(); line.Ok() {
			immediate.CrisisLine = line.Value
		}
		immediate.CrisisText = home.Value.CrisisText
	}

	codes := table.Codes()
	regional := make([]RegionalResource, 0, len(codes))
	for _, code := range codes {
		res := table.Locations[code]
		entry := RegionalResource{
			Code:    code,
			Name:    res.Name,
			Text:    res.CrisisText,
			Website: res.URL,
		}
		if line := res.CrisisLine(); line.Ok() {
			entry.Phone = line.Value
		}
		regional = append(regional, entry)
	}

	return EmergencyResources{
		ImmediateHelp: immediate,
		Regional:      regional,
		Online:        append([]OnlineResource(nil), onlineResources...),
		Disclaimer:    "If you are in immediate danger, please call emergency services (" + table.Emergency + ") or go to your nearest emergency room.",
	}
}
