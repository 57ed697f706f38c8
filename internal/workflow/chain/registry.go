package chain

import workflowprompt "prism-docs-api/internal/workflow/prompt"

var defaultPromptRegistry = workflowprompt.NewRegistry()
