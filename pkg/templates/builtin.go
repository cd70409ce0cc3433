package templates

import "github.com/flowcanvas/flowcanvas/pkg/models"

var builtinWorkflowTemplates = []WorkflowTemplate{
	{
		ID:          "customer-support-agent",
		Name:        "Customer Support Agent",
		Description: "Classifies inbound tickets, answers common questions with an LLM and escalates the rest.",
		Nodes: []TemplateNode{
			{Key: "intake", Kind: "trigger", Name: "Ticket Received", Config: map[string]any{
				"event": "ticket.created",
			}},
			{Key: "classify", Kind: "llm", Name: "Classify Ticket", Config: map[string]any{
				"model":       "gpt-4o-mini",
				"temperature": 0.2,
			}},
			{Key: "route", Kind: "condition", Name: "Known Issue?", Config: map[string]any{
				"expression": "classification == 'faq'",
			}},
			{Key: "answer", Kind: "llm", Name: "Draft Answer", Config: map[string]any{
				"model":       "gpt-4o",
				"temperature": 0.7,
			}},
			{Key: "memory", Kind: "memory", Name: "Conversation Memory", Config: map[string]any{
				"window": float64(20),
			}},
			{Key: "escalate", Kind: "tool", Name: "Escalate To Human", Config: map[string]any{
				"tool": "helpdesk.assign",
			}},
			{Key: "reply", Kind: "output", Name: "Send Reply"},
		},
		Connections: []TemplateConnection{
			{From: "intake", To: "classify", Type: models.ConnectionTypeSuccess},
			{From: "classify", To: "route", Type: models.ConnectionTypeSuccess},
			{From: "route", To: "answer", Type: models.ConnectionTypeCondition, Condition: "faq"},
			{From: "route", To: "escalate", Type: models.ConnectionTypeCondition, Condition: "complex"},
			{From: "answer", To: "memory", Type: models.ConnectionTypeSuccess},
			{From: "answer", To: "reply", Type: models.ConnectionTypeSuccess},
			{From: "escalate", To: "reply", Type: models.ConnectionTypeSuccess},
		},
	},
	{
		ID:          "data-analysis",
		Name:        "Data Analysis Pipeline",
		Description: "Fetches a dataset, fans out per-segment analysis and aggregates a report.",
		Nodes: []TemplateNode{
			{Key: "schedule", Kind: "trigger", Name: "Nightly Run", Config: map[string]any{
				"schedule": "0 2 * * *",
			}},
			{Key: "fetch", Kind: "tool", Name: "Fetch Dataset", Config: map[string]any{
				"tool": "warehouse.query",
			}},
			{Key: "fanout", Kind: "parallel", Name: "Per-Segment Analysis"},
			{Key: "analyze", Kind: "llm", Name: "Analyze Segment", Config: map[string]any{
				"model":       "gpt-4o",
				"temperature": 0.1,
			}},
			{Key: "report", Kind: "output", Name: "Publish Report"},
		},
		Connections: []TemplateConnection{
			{From: "schedule", To: "fetch", Type: models.ConnectionTypeSuccess},
			{From: "fetch", To: "fanout", Type: models.ConnectionTypeSuccess},
			{From: "fanout", To: "analyze", Type: models.ConnectionTypeSuccess},
			{From: "analyze", To: "report", Type: models.ConnectionTypeSuccess},
		},
	},
	{
		ID:          "monitoring-alerts",
		Name:        "Monitoring & Alerts",
		Description: "Polls service health in a loop and raises alerts until the incident resolves.",
		Nodes: []TemplateNode{
			{Key: "poll", Kind: "trigger", Name: "Health Poll", Config: map[string]any{
				"schedule": "*/5 * * * *",
			}},
			{Key: "check", Kind: "tool", Name: "Check Endpoints", Config: map[string]any{
				"tool": "http.probe",
			}},
			{Key: "healthy", Kind: "condition", Name: "All Healthy?", Config: map[string]any{
				"expression": "failures == 0",
			}},
			{Key: "retry", Kind: "loop", Name: "Retry Window", Config: map[string]any{
				"maxIterations": float64(3),
			}},
			{Key: "alert", Kind: "output", Name: "Page On-Call"},
		},
		Connections: []TemplateConnection{
			{From: "poll", To: "check", Type: models.ConnectionTypeSuccess},
			{From: "check", To: "healthy", Type: models.ConnectionTypeSuccess},
			{From: "healthy", To: "retry", Type: models.ConnectionTypeCondition, Condition: "degraded"},
			// Intentional back edge: the retry loop feeds the probe again.
			{From: "retry", To: "check", Type: models.ConnectionTypeSuccess},
			{From: "retry", To: "alert", Type: models.ConnectionTypeError},
		},
	},
}

var builtinDeploymentTemplates = []DeploymentTemplate{
	{
		ID:          "cicd-pipeline",
		Name:        "CI/CD Pipeline",
		Environment: "production",
		Version:     "v2.4.1",
		Stages: []TemplateStage{
			{Name: "Checkout", Script: []string{
				"Cloning repository...",
				"Checked out main at 4f2a91c",
			}},
			{Name: "Install Dependencies", Script: []string{
				"Resolving dependency graph...",
				"Fetched 214 packages",
				"Dependency install complete",
			}},
			{Name: "Lint", Script: []string{
				"Running linters...",
				"0 issues found",
			}},
			{Name: "Unit Tests", Script: []string{
				"Running unit test suite...",
				"482 passed, 0 failed",
				"Coverage: 87.3%",
			}},
			{Name: "Build Artifacts", Script: []string{
				"Compiling release build...",
				"Artifact app-v2.4.1.tar.gz created",
			}},
			{Name: "Integration Tests", Script: []string{
				"Provisioning test environment...",
				"Running integration suite...",
				"36 passed, 0 failed",
			}},
			{Name: "Deploy", Script: []string{
				"Pushing release to production...",
				"Rolling out 6 replicas...",
				"Rollout complete",
			}},
			{Name: "Smoke Tests", Script: []string{
				"Probing health endpoints...",
				"All checks green",
			}},
		},
	},
	{
		ID:          "staging-deploy",
		Name:        "Staging Deploy",
		Environment: "staging",
		Version:     "v2.5.0-rc.1",
		Stages: []TemplateStage{
			{Name: "Build", Script: []string{
				"Compiling staging build...",
				"Build complete",
			}},
			{Name: "Deploy", Script: []string{
				"Deploying to staging cluster...",
				"Rollout complete",
			}},
			{Name: "Verify", Script: []string{
				"Running smoke checks...",
				"All checks green",
			}},
		},
	},
}
