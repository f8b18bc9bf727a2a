// Package model defines the provider-agnostic language model interface used
// by the conversation driver, planner and intent classifier, plus a
// deterministic MockModel for tests. Provider adapters live in the openai and
// anthropic subpackages.
package model
