package ai

import (
	"fmt"
	"strings"

	"github.com/repolens/repolens/internal/project"
)

// BuildAnalysisPrompt assembles the contributor-guide prompt: README and
// sampled source as context, then instructions pinning the response to a
// single JSON object with project_overview and contribution_guide keys.
func BuildAnalysisPrompt(readme string, facts project.Facts, code string) string {
	var sb strings.Builder

	sb.WriteString("You are an expert at analyzing open-source projects. ")
	sb.WriteString("Provide a rich, structured analysis in a single JSON object to guide new contributors.\n\n")

	sb.WriteString("<CONTEXT>\n")

	sb.WriteString("<README>\n")
	if readme != "" {
		sb.WriteString(readme)
	} else {
		sb.WriteString("No README provided.")
	}
	sb.WriteString("\n</README>\n")

	writeFactsSection(&sb, facts)

	sb.WriteString("<SOURCE_CODE>\n")
	sb.WriteString(code)
	sb.WriteString("\n</SOURCE_CODE>\n")
	sb.WriteString("</CONTEXT>\n\n")

	sb.WriteString("<INSTRUCTIONS>\n")
	sb.WriteString("Generate a single JSON object with two top-level keys: \"project_overview\" and \"contribution_guide\".\n")
	sb.WriteString("1. The \"project_overview\" object should contain:\n")
	sb.WriteString("   - \"elevator_pitch\": A single, compelling sentence.\n")
	sb.WriteString("   - \"detailed_description\": A paragraph explaining the project's purpose and the problem it solves.\n")
	sb.WriteString("   - \"target_audience\": A brief description of who would use this project.\n")
	sb.WriteString("   - \"tech_stack\": An array of strings listing the key technologies.\n")
	sb.WriteString("2. The \"contribution_guide\" object should contain:\n")
	sb.WriteString("   - \"current_status\": A description of how complete the project is.\n")
	sb.WriteString("   - \"contribution_friendliness\": A score from 1-10 and a brief justification.\n")
	sb.WriteString("   - \"first_good_issue\": A specific, actionable task a new developer could tackle first.\n")
	sb.WriteString("   - \"suggested_roadmap\": An array of 3-4 major features or next steps for the project's future.\n\n")
	sb.WriteString("Do not include any text or markdown formatting outside of the main JSON object.\n")
	sb.WriteString("</INSTRUCTIONS>\n")

	return sb.String()
}

// writeFactsSection emits the repository facts block, when any facts exist.
func writeFactsSection(sb *strings.Builder, facts project.Facts) {
	if len(facts.Manifests) == 0 && facts.GoModule == "" &&
		facts.ReadmeTitle == "" && len(facts.ReadmeSections) == 0 {
		return
	}

	sb.WriteString("<REPO_FACTS>\n")
	if len(facts.Manifests) > 0 {
		fmt.Fprintf(sb, "Manifest files at root: %s\n", strings.Join(facts.Manifests, ", "))
	}
	if facts.GoModule != "" {
		fmt.Fprintf(sb, "Go module path: %s\n", facts.GoModule)
	}
	if facts.ReadmeTitle != "" {
		fmt.Fprintf(sb, "README title: %s\n", facts.ReadmeTitle)
	}
	if len(facts.ReadmeSections) > 0 {
		fmt.Fprintf(sb, "README sections: %s\n", strings.Join(facts.ReadmeSections, ", "))
	}
	sb.WriteString("</REPO_FACTS>\n")
}
