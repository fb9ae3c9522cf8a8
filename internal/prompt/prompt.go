// Package prompt builds the natural-language instructions sent to the
// generative AI service. Builders are pure: identical parameters always
// produce the identical string, and optional clauses are omitted entirely
// when their input is empty.
package prompt

import (
	"fmt"
	"strings"
)

// Subject selects which athlete an analysis focuses on.
type Subject string

const (
	SubjectTop    Subject = "top"
	SubjectBottom Subject = "bottom"
	SubjectBoth   Subject = "both"
)

// Valid reports whether the subject is one of the known selectors.
func (s Subject) Valid() bool {
	switch s {
	case SubjectTop, SubjectBottom, SubjectBoth:
		return true
	}
	return false
}

// rulesetLabel maps the ruleset flag to the literal wording used in prompts.
func rulesetLabel(mma bool) string {
	if mma {
		return "MMA"
	}
	return "Jiu-jitsu"
}

// PlanParams parameterizes a next-moves recommendation from a still frame.
type PlanParams struct {
	Subject  Subject
	MMA      bool
	Keywords string
}

// GrapplingPlan builds the instruction for recommending the next immediate
// steps from a still frame of a match.
func GrapplingPlan(p PlanParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The image is a still frame from a grappling match. The match has %s rules. ", rulesetLabel(p.MMA))
	fmt.Fprintf(&b, "I want you to analyze: %s, and provide three options for the next immediate steps ", p.Subject)
	b.WriteString("towards grappling moves that would work best for them given their current position. ")
	b.WriteString("I want these steps to be listed in quick bullet format like ex: \"1) <<step>> : towards <<move>>, 2) ...\". ")
	b.WriteString("Base the recommendations on historical MMA and Jiu-jitsu match performance. ")
	if p.Keywords != "" {
		fmt.Fprintf(&b, "I want you to also take special note of the following keywords for your image and recommendation analysis: %s", p.Keywords)
	}
	return b.String()
}

// AnalysisParams parameterizes a full-match video analysis.
type AnalysisParams struct {
	Subject  Subject
	MMA      bool
	Keywords string
}

// MatchAnalysis builds the instruction for analyzing a match video.
func MatchAnalysis(p AnalysisParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, "These images are frames from a grappling match. The match has %s rules. ", rulesetLabel(p.MMA))
	fmt.Fprintf(&b, "I want you to analyze: %s, and provide an analysis of what went right or wrong ", p.Subject)
	fmt.Fprintf(&b, "during the match, along with some recommendations for the %s in their next match. ", p.Subject)
	b.WriteString("I want these recommendations to be listed in a quick summary format. ")
	b.WriteString("Base the recommendations on the athlete's body type, jiu-jitsu guard situation, and historical ")
	b.WriteString("MMA and Jiu-jitsu match performance. ")
	if p.Keywords != "" {
		fmt.Fprintf(&b, "I want you to also take special note of the following keywords for your analysis: %s", p.Keywords)
	}
	return b.String()
}

// FlowChartParams parameterizes flow-chart generation for an athlete.
type FlowChartParams struct {
	Measurables   string
	Position      Subject
	MMA           bool
	FavoriteIdeas string
}

// FlowChart builds the instruction for generating a visual flow chart of
// jiu-jitsu moves tailored to an athlete's attributes.
func FlowChart(p FlowChartParams) string {
	var b strings.Builder
	b.WriteString("I want you to generate a visual flow chart of jiu-jitsu moves that will have the greatest likelihood ")
	fmt.Fprintf(&b, "of success for an athlete with the following measurables: %s. ", p.Measurables)
	fmt.Fprintf(&b, "I want this chart to focus on %s position under the %s ruleset", p.Position, rulesetLabel(p.MMA))
	if p.FavoriteIdeas != "" {
		fmt.Fprintf(&b, ", and take into account that the athlete has the following ideas: %s", p.FavoriteIdeas)
	}
	return b.String()
}

// mermaidFormatClause tells the model to answer with a bare edge list the
// diagram package can parse.
const mermaidFormatClause = ". Respond with only a Mermaid flow chart definition: " +
	"the first line must be \"graph TD\", followed by one edge per line in the form " +
	"\"Source --> Target[move to get there]\", with no code fences and no commentary"

// MermaidFlowChart builds the instruction for generating the flow chart as a
// navigable Mermaid edge list instead of a rendered image.
func MermaidFlowChart(p FlowChartParams) string {
	return FlowChart(p) + mermaidFormatClause
}

// RecenteredFlowChart builds the instruction for regenerating a flow chart
// centered on the position the user just navigated to.
func RecenteredFlowChart(node string, p FlowChartParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I want you to generate a flow chart of jiu-jitsu moves starting from the %s position ", node)
	fmt.Fprintf(&b, "for an athlete with the following measurables: %s. ", p.Measurables)
	fmt.Fprintf(&b, "I want this chart to focus on %s position under the %s ruleset", p.Position, rulesetLabel(p.MMA))
	if p.FavoriteIdeas != "" {
		fmt.Fprintf(&b, ", and take into account that the athlete has the following ideas: %s", p.FavoriteIdeas)
	}
	b.WriteString(mermaidFormatClause)
	return b.String()
}

// PersonaInstructions builds the system instructions for a conversation with
// a famous martial arts practitioner.
func PersonaInstructions(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the famous martial arts practitioner %s. ", name)
	b.WriteString("I want you to have a conversation with the user based on that information, ")
	b.WriteString("and have the conversation focused around improving the user's grappling and self-defense. ")
	b.WriteString("I want the conversation to always have an upbeat and motivational conversational style.")
	return b.String()
}

// MeasurementEstimate builds the instruction for estimating an athlete's
// height, weight and build from an image. positionDescriptor picks out one
// athlete when the frame shows several ("in blue gi", "on the left").
func MeasurementEstimate(positionDescriptor string) string {
	var b strings.Builder
	b.WriteString("Please analyze this image and provide an estimate of the ")
	if positionDescriptor != "" {
		fmt.Fprintf(&b, "athlete %s's ", positionDescriptor)
	} else {
		b.WriteString("athlete's ")
	}
	b.WriteString("height, weight, and build. Include details about their body type ")
	b.WriteString("(such as endomorph, mesomorph, ectomorph), muscle mass distribution, limb length proportions, ")
	b.WriteString("and any notable physical characteristics that might affect their performance in grappling. ")
	b.WriteString("Present your analysis in a clear, concise format with estimates for height in feet/inches and cm, ")
	b.WriteString("weight in pounds and kg, and body type classification.")
	return b.String()
}
