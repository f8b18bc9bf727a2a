package command

import (
	"github.com/vortexion256/caremax/core"
	"github.com/vortexion256/caremax/model"
)

// descriptions shown to the model per tool.
var descriptions = map[core.ActionKind]string{
	core.ActionBookAppointment:   "Create or update a patient appointment. Booking the same phone and date again updates the existing appointment.",
	core.ActionLookupAppointment: "Look up an existing appointment by the patient's phone number, optionally filtered to a date.",
	core.ActionQuerySheet:        "Fetch data from a configured reference sheet (prices, schedules, FAQs) by its label.",
	core.ActionRecordKnowledge:   "Persist a durable fact into the clinic knowledge base.",
	core.ActionCreateNote:        "Record a conversation note under a category.",
}

// ToolDefinitions returns the closed tool set exposed to the model, in a
// stable order.
func ToolDefinitions() []model.ToolDefinition {
	kinds := []core.ActionKind{
		core.ActionBookAppointment,
		core.ActionLookupAppointment,
		core.ActionQuerySheet,
		core.ActionRecordKnowledge,
		core.ActionCreateNote,
	}
	defs := make([]model.ToolDefinition, 0, len(kinds))
	for _, k := range kinds {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        string(k),
				Description: descriptions[k],
				Parameters:  argSchemas[k],
			},
		})
	}
	return defs
}

// IsStateChanging reports whether the named tool mutates external state.
// Used by the planner to force confirmation gates.
func IsStateChanging(toolName string) bool {
	kind := core.ActionKind(toolName)
	if _, ok := argSchemas[kind]; !ok {
		return false
	}
	return kind.StateChanging()
}
