package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dealflow/internal/app"
	"dealflow/internal/config"
	"dealflow/internal/db"
	"dealflow/internal/domain"
	"dealflow/internal/ids"
	"dealflow/internal/migrate"
	"dealflow/internal/repo"
	"dealflow/internal/server"
	"dealflow/internal/workflow"
)

var rootCmd = &cobra.Command{
	Use:   "dfw",
	Short: "Dealflow CLI",
	Long: `Dealflow runs the five-stage commerce pipeline for an org.
Revenue side: leads move new -> contacted -> qualified -> converted, then the
evaluation/commit/contract/handoff chain takes over. Procurement mirrors it
with purchase requests. Commits above the configured thresholds wait for the
stamped approver roles before a contract can exist. Every mutation leaves a
workspace task, approval, or activity entry for the consumer modules.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("DEALFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("org", "", "org id (overrides single-org default)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("org", rootCmd.PersistentFlags().Lookup("org"))
}

func registerCommands() {
	rootCmd.AddCommand(orgCmd())
	rootCmd.AddCommand(leadCmd())
	rootCmd.AddCommand(requestCmd())
	rootCmd.AddCommand(evaluationCmd())
	rootCmd.AddCommand(commitCmd())
	rootCmd.AddCommand(contractCmd())
	rootCmd.AddCommand(partyCmd())
	rootCmd.AddCommand(workspaceCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(signalCmd())
	rootCmd.AddCommand(workOrderCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(serveCmd())
}

func orgCmd() *cobra.Command {
	org := &cobra.Command{Use: "org", Short: "Manage orgs"}
	org.AddCommand(orgCreateCmd())
	org.AddCommand(orgListCmd())
	org.AddCommand(orgConfigCmd())
	return org
}

func orgCreateCmd() *cobra.Command {
	var id, name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create org",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id required")
			}
			if name == "" {
				name = id
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				now := time.Now().UTC().Format(time.RFC3339)
				o := domain.Org{ID: id, Name: name, Status: "active", CreatedAt: now}
				if err := r.InsertOrg(ctx, o); err != nil {
					return err
				}
				if err := r.UpsertOrgConfig(ctx, id, config.Default(id)); err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "org id")
	cmd.Flags().StringVar(&name, "name", "", "org display name")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func orgListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List orgs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListOrgs(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
}

func orgConfigCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage org config"}
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show org config stored in DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				return printJSONOrTable(e.Config)
			})
		},
	})
	cfg.AddCommand(orgConfigImportCmd())
	return cfg
}

func orgConfigImportCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import org config from YAML into the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromFile(filePath)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				orgID := cfg.Org.ID
				if orgID == "" {
					orgID = t.OrgID
				}
				if err := e.Repo.UpsertOrgConfig(ctx, orgID, cfg); err != nil {
					return err
				}
				return printJSONOrTable(cfg)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to YAML config")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func leadCmd() *cobra.Command {
	lead := &cobra.Command{
		Use:   "lead",
		Short: "Manage revenue leads",
		Long:  "Leads are the revenue pipeline entry point. They move new -> contacted -> qualified and convert into an evaluation against a resolved customer party.",
	}
	lead.AddCommand(leadCreateCmd())
	lead.AddCommand(leadListCmd())
	lead.AddCommand(leadGetCmd())
	lead.AddCommand(leadStageCmd())
	lead.AddCommand(leadConvertCmd())
	return lead
}

func leadCreateCmd() *cobra.Command {
	var opts workflow.LeadCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a lead",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				l, err := e.CreateLead(ctx, t, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(l)
			})
		},
	}
	cmd.Flags().StringVar(&opts.CompanyName, "company", "", "company name")
	cmd.Flags().StringVar(&opts.Country, "country", "", "country")
	cmd.Flags().StringVar(&opts.Industry, "industry", "", "industry")
	cmd.Flags().StringVar(&opts.ContactName, "contact", "", "contact name")
	cmd.Flags().StringVar(&opts.ContactEmail, "email", "", "contact email")
	cmd.Flags().StringVar(&opts.LeadSource, "source", "", "lead source")
	cmd.Flags().Int64Var(&opts.EstimatedDealValue, "value", 0, "estimated deal value")
	cmd.Flags().BoolVar(&opts.ProblemIdentified, "problem-identified", false, "problem identified")
	cmd.Flags().StringVar(&opts.BudgetMentioned, "budget", "", "budget mentioned")
	cmd.Flags().BoolVar(&opts.AuthorityKnown, "authority-known", false, "decision authority known")
	cmd.Flags().BoolVar(&opts.NeedTimeline, "need-timeline", false, "need timeline confirmed")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "notes")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("contact")
	return cmd
}

func leadListCmd() *cobra.Command {
	var f repo.LeadFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				leads, err := e.Repo.ListLeads(ctx, t.OrgID, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(leads)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Company", "Stage", "Rating", "Value"})
				for _, l := range leads {
					tw.AppendRow(table.Row{l.ID, l.CompanyName, l.Stage, l.Rating, l.EstimatedDealValue})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Stage, "stage", "", "stage filter")
	cmd.Flags().StringVar(&f.Rating, "rating", "", "rating filter")
	cmd.Flags().StringVar(&f.LeadSource, "source", "", "lead source filter")
	return cmd
}

func leadGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				l, err := e.Repo.GetLead(ctx, t.OrgID, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(l)
			})
		},
	}
}

func leadStageCmd() *cobra.Command {
	var stage string
	cmd := &cobra.Command{
		Use:   "stage <id>",
		Short: "Advance lead stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				l, err := e.ChangeLeadStage(ctx, t, args[0], stage)
				if err != nil {
					return err
				}
				return printJSONOrTable(l)
			})
		},
	}
	cmd.Flags().StringVar(&stage, "to", "", "target stage (contacted, qualified)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func leadConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <id>",
		Short: "Convert qualified lead to evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				res, err := e.ConvertLead(ctx, t, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}
}

func requestCmd() *cobra.Command {
	req := &cobra.Command{
		Use:   "request",
		Short: "Manage purchase requests",
	}
	req.AddCommand(requestCreateCmd())
	req.AddCommand(requestListCmd())
	req.AddCommand(requestGetCmd())
	req.AddCommand(requestSubmitCmd())
	return req
}

func requestCreateCmd() *cobra.Command {
	var opts workflow.RequestCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a purchase request",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				pr, err := e.CreateRequest(ctx, t, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(pr)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Title, "title", "", "request title")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	cmd.Flags().StringVar(&opts.RequestType, "type", "goods", "request type")
	cmd.Flags().StringVar(&opts.Priority, "priority", "medium", "priority")
	cmd.Flags().StringVar(&opts.RequestingDepartment, "department", "", "requesting department")
	cmd.Flags().StringVar(&opts.CostCenter, "cost-center", "", "cost center")
	cmd.Flags().Int64Var(&opts.EstimatedCost, "cost", 0, "estimated cost")
	cmd.Flags().BoolVar(&opts.IsRecurring, "recurring", false, "recurring spend")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func requestListCmd() *cobra.Command {
	var f repo.RequestFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List purchase requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				requests, err := e.Repo.ListRequests(ctx, t.OrgID, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(requests)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Priority", "Cost"})
				for _, pr := range requests {
					tw.AppendRow(table.Row{pr.ID, pr.Title, pr.Status, pr.Priority, pr.EstimatedCost})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().StringVar(&f.Priority, "priority", "", "priority filter")
	return cmd
}

func requestGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get purchase request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				pr, err := e.Repo.GetRequest(ctx, t.OrgID, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(pr)
			})
		},
	}
}

func requestSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <id>",
		Short: "Submit draft request for evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				res, err := e.SubmitRequest(ctx, t, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}
}

func evaluationCmd() *cobra.Command {
	ev := &cobra.Command{Use: "evaluation", Short: "Manage evaluations"}
	var dom string

	list := &cobra.Command{
		Use:   "list",
		Short: "List evaluations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				items, err := e.Repo.ListEvaluations(ctx, t.OrgID, dom)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	list.Flags().StringVar(&dom, "domain", "", "domain filter (revenue, procurement)")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show evaluation with qualification snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				ev, err := e.Repo.GetEvaluation(ctx, t.OrgID, args[0])
				if err != nil {
					return err
				}
				detail, err := e.GetEvaluationDetail(ctx, t, ev.Domain, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(detail)
			})
		},
	}

	submit := &cobra.Command{
		Use:   "submit <id>",
		Short: "Submit evaluation for commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				ev, err := e.Repo.GetEvaluation(ctx, t.OrgID, args[0])
				if err != nil {
					return err
				}
				res, err := e.SubmitEvaluation(ctx, t, ev.Domain, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}

	ev.AddCommand(list, show, submit)
	return ev
}

func commitCmd() *cobra.Command {
	cm := &cobra.Command{Use: "commit", Short: "Manage commits"}
	var dom string

	list := &cobra.Command{
		Use:   "list",
		Short: "List commits",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				items, err := e.Repo.ListCommits(ctx, t.OrgID, dom)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Domain", "Value", "Status", "Approvers"})
				for _, c := range items {
					roles := make([]string, 0, len(c.Approvers))
					for _, a := range c.Approvers {
						roles = append(roles, a.Role)
					}
					tw.AppendRow(table.Row{c.ID, c.Domain, c.DealValue, c.Status, strings.Join(roles, ", ")})
				}
				tw.Render()
				return nil
			})
		},
	}
	list.Flags().StringVar(&dom, "domain", "", "domain filter (revenue, procurement)")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show commit with recorded approvals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				c, err := e.Repo.GetCommit(ctx, t.OrgID, args[0])
				if err != nil {
					return err
				}
				recorded, err := e.Repo.ListCommitApprovals(ctx, c.ID)
				if err != nil {
					return err
				}
				return printJSONOrTable(struct {
					Commit    domain.Commit           `json:"commit"`
					Approvals []domain.CommitApproval `json:"approvals"`
				}{Commit: c, Approvals: recorded})
			})
		},
	}

	var role string
	approve := &cobra.Command{
		Use:   "approve <id>",
		Short: "Record one role's approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				c, err := e.Repo.GetCommit(ctx, t.OrgID, args[0])
				if err != nil {
					return err
				}
				res, err := e.ApproveCommit(ctx, t, c.Domain, args[0], role)
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}
	approve.Flags().StringVar(&role, "role", "", "approver role")
	_ = approve.MarkFlagRequired("role")

	contract := &cobra.Command{
		Use:   "contract <id>",
		Short: "Create contract from approved commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				c, err := e.Repo.GetCommit(ctx, t.OrgID, args[0])
				if err != nil {
					return err
				}
				con, err := e.CreateContract(ctx, t, c.Domain, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(con)
			})
		},
	}

	cm.AddCommand(list, show, approve, contract)
	return cm
}

func contractCmd() *cobra.Command {
	con := &cobra.Command{Use: "contract", Short: "Manage contracts"}
	var dom string

	list := &cobra.Command{
		Use:   "list",
		Short: "List contracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				items, err := e.Repo.ListContracts(ctx, t.OrgID, dom)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	list.Flags().StringVar(&dom, "domain", "", "domain filter (revenue, procurement)")

	sign := &cobra.Command{
		Use:   "sign <id>",
		Short: "Sign contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				c, err := e.Repo.GetContract(ctx, t.OrgID, args[0])
				if err != nil {
					return err
				}
				signed, err := e.SignContract(ctx, t, c.Domain, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(signed)
			})
		},
	}

	handoff := &cobra.Command{
		Use:   "handoff <id>",
		Short: "Hand signed contract to operations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				c, err := e.Repo.GetContract(ctx, t.OrgID, args[0])
				if err != nil {
					return err
				}
				res, err := e.CreateHandoff(ctx, t, c.Domain, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}

	con.AddCommand(list, sign, handoff)
	return con
}

func workspaceCmd() *cobra.Command {
	ws := &cobra.Command{Use: "workspace", Short: "Workspace tasks and approvals"}

	var taskFilters repo.TaskFilters
	tasks := &cobra.Command{
		Use:   "tasks",
		Short: "List workspace tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				items, err := e.Repo.ListWorkspaceTasks(ctx, t.OrgID, taskFilters)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Priority", "Context"})
				for _, task := range items {
					tw.AppendRow(table.Row{task.ID, task.Title, task.Status, task.Priority, task.ContextType + "/" + task.ContextID})
				}
				tw.Render()
				return nil
			})
		},
	}
	tasks.Flags().StringVar(&taskFilters.Status, "status", "", "status filter")
	tasks.Flags().StringVar(&taskFilters.ContextType, "context-type", "", "context type filter")

	var approvalFilters repo.ApprovalFilters
	approvals := &cobra.Command{
		Use:   "approvals",
		Short: "List workspace approvals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				items, err := e.Repo.ListApprovals(ctx, t.OrgID, approvalFilters)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Role", "Decision", "Workflow"})
				for _, a := range items {
					tw.AppendRow(table.Row{a.ID, a.Title, a.Role, a.Decision, a.WorkflowRef})
				}
				tw.Render()
				return nil
			})
		},
	}
	approvals.Flags().StringVar(&approvalFilters.Decision, "decision", "", "decision filter")
	approvals.Flags().StringVar(&approvalFilters.Role, "role", "", "role filter")

	ws.AddCommand(tasks, approvals)
	return ws
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Activity feed"}
	var f repo.ActivityFilters
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Tail activity entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				items, err := e.Repo.ListActivity(ctx, t.OrgID, f)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	tail.Flags().IntVar(&f.Limit, "n", 20, "number of entries")
	tail.Flags().StringVar(&f.Module, "module", "", "module filter")
	tail.Flags().StringVar(&f.Action, "action", "", "action filter")
	tail.Flags().StringVar(&f.EntityID, "entity-id", "", "entity id filter")
	lg.AddCommand(tail)
	return lg
}

func signalCmd() *cobra.Command {
	sig := &cobra.Command{Use: "signal", Short: "Intelligence signals"}
	var kind string
	var n int
	list := &cobra.Command{
		Use:   "list",
		Short: "List signals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				items, err := e.Repo.ListSignals(ctx, t.OrgID, kind, n)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	list.Flags().StringVar(&kind, "kind", "", "signal kind filter")
	list.Flags().IntVar(&n, "n", 50, "number of signals")
	sig.AddCommand(list)
	return sig
}

func workOrderCmd() *cobra.Command {
	wo := &cobra.Command{Use: "workorder", Short: "Operations work intake"}
	var sourceType string
	list := &cobra.Command{
		Use:   "list",
		Short: "List incoming work orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				items, err := e.Repo.ListWorkOrders(ctx, t.OrgID, sourceType)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Source", "Contract", "Status"})
				for _, w := range items {
					tw.AppendRow(table.Row{w.ID, w.Title, w.SourceType, w.SourceContractID, w.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	list.Flags().StringVar(&sourceType, "source", "", "source type filter (revenue, procurement)")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Get a work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				w, err := e.Repo.GetWorkOrder(ctx, t.OrgID, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(w)
			})
		},
	}

	wo.AddCommand(list, get)
	return wo
}

func partyCmd() *cobra.Command {
	party := &cobra.Command{Use: "party", Short: "Canonical counterparties"}
	var kind string
	list := &cobra.Command{
		Use:   "list",
		Short: "List parties",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				items, err := e.Repo.ListParties(ctx, t.OrgID, kind)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Kind", "Country", "Status"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Name, p.Kind, p.Country, p.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	list.Flags().StringVar(&kind, "kind", "", "kind filter (customer, vendor)")
	party.AddCommand(list)
	return party
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed demo workflow data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				sum, err := e.Seed(ctx, t)
				if err != nil {
					return err
				}
				return printJSONOrTable(sum)
			})
		},
	}
}

func apikeyCmd() *cobra.Command {
	ak := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	ak.AddCommand(apikeyCreateCmd())
	ak.AddCommand(apikeyListCmd())
	ak.AddCommand(apikeyDeleteCmd())
	return ak
}

func apikeyCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create API key (secret printed once)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				raw := make([]byte, 24)
				if _, err := rand.Read(raw); err != nil {
					return err
				}
				secret := "dfw_" + hex.EncodeToString(raw)
				key := domain.APIKey{
					ID:      ids.New(ids.APIKey),
					OrgID:   t.OrgID,
					ActorID: t.ActorID,
					Name:    name,
					KeyHash: repo.HashAPIKey(secret),
				}
				if err := e.Repo.InsertAPIKey(ctx, key); err != nil {
					return err
				}
				out := map[string]any{
					"id":      key.ID,
					"org_id":  key.OrgID,
					"name":    key.Name,
					"api_key": secret,
				}
				return printJSONOrTable(out)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key name")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				items, err := e.Repo.ListAPIKeys(ctx, t.OrgID, "")
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Actor", "Created"})
				for _, k := range items {
					tw.AppendRow(table.Row{k.ID, k.Name, k.ActorID, k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func apikeyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e workflow.Engine, t workflow.Tenant) error {
				return e.Repo.DeleteAPIKey(ctx, t.OrgID, args[0])
			})
		},
	}
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			_, cfg, err := app.ResolveOrgAndConfig(cmd.Context(), viper.GetString("org"), r)
			if err != nil {
				return err
			}
			e := workflow.New(conn, cfg)
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("DEALFLOW_JWT_SECRET")}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("DEALFLOW_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Dealflow API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/api", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, workflow.Engine, workflow.Tenant) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	orgID, cfg, err := app.ResolveOrgAndConfig(ctx, viper.GetString("org"), r)
	if err != nil {
		return err
	}
	e := workflow.New(conn, cfg)
	t := workflow.Tenant{OrgID: orgID, ActorID: viper.GetString("actor-id")}
	return fn(ctx, e, t)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
