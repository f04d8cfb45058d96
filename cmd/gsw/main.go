package main

import (
	"context"
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

	"groundswell/internal/catalog"
	"groundswell/internal/config"
	"groundswell/internal/db"
	"groundswell/internal/domain"
	"groundswell/internal/engine"
	"groundswell/internal/repo"
	"groundswell/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "gsw",
	Short: "Groundswell CLI",
	Long: `Groundswell tracks multi-party initiatives with an append-only attestation ledger.
Core concepts:
- Workspace: the .groundswell directory holding the database; schema is provisioned on first use.
- Initiative: a long-running collaborative effort moving draft -> chartered -> funded -> executing -> evaluating -> closed.
- Participants: individuals and organizations attached to an initiative with a role.
- Opportunities: units of work an initiative publishes; open opportunities accept engagements.
- Engagements: a contributor bound to an opportunity; activating one fills the opportunity.
- Milestones: deliverable checkpoints on an engagement with evidence and payout records.
- Attestations: the append-only ledger entry every mutation leaves behind; view with 'gsw attest list'.`,
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
	viper.SetEnvPrefix("GSW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().Int64("actor", 0, "acting individual id")
	rootCmd.PersistentFlags().String("actor-address", "", "acting wallet address")
	rootCmd.PersistentFlags().Int64("actor-org", 0, "acting organization id")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor", rootCmd.PersistentFlags().Lookup("actor"))
	_ = viper.BindPFlag("actor-address", rootCmd.PersistentFlags().Lookup("actor-address"))
	_ = viper.BindPFlag("actor-org", rootCmd.PersistentFlags().Lookup("actor-org"))
}

func registerCommands() {
	rootCmd.AddCommand(initiativeCmd())
	rootCmd.AddCommand(opportunityCmd())
	rootCmd.AddCommand(engagementCmd())
	rootCmd.AddCommand(milestoneCmd())
	rootCmd.AddCommand(attestCmd())
	rootCmd.AddCommand(identityCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(serveCmd())
}

func cliActor() engine.Actor {
	act := engine.Actor{
		IndividualID: viper.GetInt64("actor"),
		Address:      viper.GetString("actor-address"),
	}
	if org := viper.GetInt64("actor-org"); org > 0 {
		act.OrgID = &org
	}
	return act
}

func initiativeCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "initiative", Short: "Manage initiatives"}
	cmd.AddCommand(initiativeCreateCmd())
	cmd.AddCommand(initiativeListCmd())
	cmd.AddCommand(initiativeShowCmd())
	cmd.AddCommand(initiativeUpdateCmd())
	cmd.AddCommand(initiativeDashboardCmd())
	cmd.AddCommand(participantCmd())
	cmd.AddCommand(workstreamCmd())
	cmd.AddCommand(outcomeCmd())
	return cmd
}

func initiativeCreateCmd() *cobra.Command {
	var title, summary, state string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create initiative",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				in, err := e.CreateInitiative(ctx, engine.InitiativeCreateOptions{
					Title:   title,
					Summary: summary,
					State:   domain.InitiativeState(state),
				}, cliActor())
				if err != nil {
					return err
				}
				return printJSONOrTable(in)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "initiative title")
	cmd.Flags().StringVar(&summary, "summary", "", "initiative summary")
	cmd.Flags().StringVar(&state, "state", "", "initial state (default draft)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func initiativeListCmd() *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List initiatives",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListInitiatives(ctx, scope, cliActor().IndividualID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "State", "Created"})
				for _, in := range items {
					tw.AppendRow(table.Row{in.ID, in.Title, in.State, time.Unix(in.CreatedAt, 0).Format(time.DateOnly)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "all", "all, active, or mine")
	return cmd
}

func initiativeShowCmd() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show initiative",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				in, err := e.GetInitiative(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(in)
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "initiative id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func initiativeUpdateCmd() *cobra.Command {
	var id int64
	var title, summary, state string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update initiative fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				patch := repo.InitiativePatch{}
				if cmd.Flags().Changed("title") {
					patch.Title = &title
				}
				if cmd.Flags().Changed("summary") {
					patch.Summary = &summary
				}
				if cmd.Flags().Changed("state") {
					s := domain.InitiativeState(state)
					patch.State = &s
				}
				in, err := e.UpdateInitiative(ctx, id, patch, cliActor())
				if err != nil {
					return err
				}
				return printJSONOrTable(in)
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "initiative id")
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&summary, "summary", "", "new summary")
	cmd.Flags().StringVar(&state, "state", "", "new state")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func initiativeDashboardCmd() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Initiative dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.GetDashboard(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "initiative id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func participantCmd() *cobra.Command {
	var initiativeID, individualID, orgID int64
	var action, kind, role, status string
	cmd := &cobra.Command{
		Use:   "participant",
		Short: "Add, remove, or update a participant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				input := engine.ParticipantInput{
					Kind:   domain.ParticipantKind(kind),
					Role:   role,
					Status: domain.ParticipantStatus(status),
				}
				if individualID > 0 {
					input.IndividualID = &individualID
				}
				if orgID > 0 {
					input.OrganizationID = &orgID
				}
				if err := e.UpsertParticipant(ctx, initiativeID, action, input, cliActor()); err != nil {
					return err
				}
				items, err := e.Repo.ListParticipants(ctx, initiativeID)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	cmd.Flags().Int64Var(&initiativeID, "initiative", 0, "initiative id")
	cmd.Flags().StringVar(&action, "action", "add", "add, remove, or update")
	cmd.Flags().StringVar(&kind, "kind", "individual", "individual or organization")
	cmd.Flags().Int64Var(&individualID, "individual", 0, "individual id")
	cmd.Flags().Int64Var(&orgID, "org", 0, "organization id")
	cmd.Flags().StringVar(&role, "role", "", "participant role")
	cmd.Flags().StringVar(&status, "status", "", "participant status")
	_ = cmd.MarkFlagRequired("initiative")
	return cmd
}

func workstreamCmd() *cobra.Command {
	var initiativeID, sortOrder int64
	var title, description string
	cmd := &cobra.Command{
		Use:   "workstream",
		Short: "Add a workstream",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				ws, err := e.CreateWorkstream(ctx, initiativeID, engine.WorkstreamCreateOptions{
					Title:       title,
					Description: description,
					SortOrder:   sortOrder,
				}, cliActor())
				if err != nil {
					return err
				}
				return printJSONOrTable(ws)
			})
		},
	}
	cmd.Flags().Int64Var(&initiativeID, "initiative", 0, "initiative id")
	cmd.Flags().StringVar(&title, "title", "", "workstream title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().Int64Var(&sortOrder, "sort-order", 0, "display order")
	_ = cmd.MarkFlagRequired("initiative")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func outcomeCmd() *cobra.Command {
	var initiativeID int64
	var title string
	cmd := &cobra.Command{
		Use:   "outcome",
		Short: "Add a measurable outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				out, err := e.CreateOutcome(ctx, initiativeID, engine.OutcomeCreateOptions{Title: title}, cliActor())
				if err != nil {
					return err
				}
				return printJSONOrTable(out)
			})
		},
	}
	cmd.Flags().Int64Var(&initiativeID, "initiative", 0, "initiative id")
	cmd.Flags().StringVar(&title, "title", "", "outcome title")
	_ = cmd.MarkFlagRequired("initiative")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func opportunityCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "opportunity", Short: "Manage opportunities"}
	cmd.AddCommand(opportunityCreateCmd())
	cmd.AddCommand(opportunityShowCmd())
	cmd.AddCommand(opportunityEngageCmd())
	return cmd
}

func opportunityCreateCmd() *cobra.Command {
	var initiativeID, workstreamID int64
	var title, description, status string
	var skills []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create opportunity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.OpportunityCreateOptions{
					Title:          title,
					Description:    description,
					RequiredSkills: skills,
					Status:         domain.OpportunityStatus(status),
				}
				if workstreamID > 0 {
					opts.WorkstreamID = &workstreamID
				}
				opp, err := e.CreateOpportunity(ctx, initiativeID, opts, cliActor())
				if err != nil {
					return err
				}
				return printJSONOrTable(opp)
			})
		},
	}
	cmd.Flags().Int64Var(&initiativeID, "initiative", 0, "initiative id")
	cmd.Flags().Int64Var(&workstreamID, "workstream", 0, "workstream id")
	cmd.Flags().StringVar(&title, "title", "", "opportunity title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&status, "status", "", "initial status (default draft)")
	cmd.Flags().StringSliceVar(&skills, "skill", nil, "required skill key (repeatable)")
	_ = cmd.MarkFlagRequired("initiative")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func opportunityShowCmd() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show opportunity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opp, err := e.GetOpportunity(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(opp)
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "opportunity id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func opportunityEngageCmd() *cobra.Command {
	var id, contributorID, requestingOrgID int64
	var contributorAddress, status string
	cmd := &cobra.Command{
		Use:   "engage",
		Short: "Create an engagement on an opportunity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.EngagementCreateOptions{
					ContributorAddress: contributorAddress,
					Status:             domain.EngagementStatus(status),
				}
				if contributorID > 0 {
					opts.ContributorIndividualID = &contributorID
				}
				if requestingOrgID > 0 {
					opts.RequestingOrgID = &requestingOrgID
				}
				eng, err := e.CreateEngagement(ctx, id, opts, cliActor())
				if err != nil {
					return err
				}
				return printJSONOrTable(eng)
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "opportunity id")
	cmd.Flags().Int64Var(&contributorID, "contributor", 0, "contributor individual id")
	cmd.Flags().StringVar(&contributorAddress, "contributor-address", "", "contributor wallet address")
	cmd.Flags().Int64Var(&requestingOrgID, "requesting-org", 0, "requesting organization id")
	cmd.Flags().StringVar(&status, "status", "", "initial status (default proposed)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func engagementCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "engagement", Short: "Manage engagements"}
	cmd.AddCommand(engagementShowCmd())
	cmd.AddCommand(engagementUpdateCmd())
	cmd.AddCommand(engagementMilestoneCmd())
	return cmd
}

func engagementShowCmd() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show engagement",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				eng, err := e.GetEngagement(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(eng)
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "engagement id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func engagementUpdateCmd() *cobra.Command {
	var id int64
	var status string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update engagement status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				patch := repo.EngagementPatch{}
				if cmd.Flags().Changed("status") {
					s := domain.EngagementStatus(status)
					patch.Status = &s
				}
				eng, err := e.UpdateEngagement(ctx, id, patch, cliActor())
				if err != nil {
					return err
				}
				return printJSONOrTable(eng)
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "engagement id")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func engagementMilestoneCmd() *cobra.Command {
	var id, dueAt int64
	var title string
	cmd := &cobra.Command{
		Use:   "milestone",
		Short: "Add a milestone to an engagement",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.MilestoneCreateOptions{Title: title}
				if dueAt > 0 {
					opts.DueAt = &dueAt
				}
				m, err := e.CreateMilestone(ctx, id, opts, cliActor())
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "engagement id")
	cmd.Flags().StringVar(&title, "title", "", "milestone title")
	cmd.Flags().Int64Var(&dueAt, "due-at", 0, "due time, unix seconds")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func milestoneCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "milestone", Short: "Manage milestones"}
	cmd.AddCommand(milestoneShowCmd())
	cmd.AddCommand(milestoneUpdateCmd())
	return cmd
}

func milestoneShowCmd() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show milestone",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.GetMilestone(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "milestone id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func milestoneUpdateCmd() *cobra.Command {
	var id int64
	var status, evidenceURI string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update milestone status or evidence",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				patch := repo.MilestonePatch{}
				if cmd.Flags().Changed("status") {
					s := domain.MilestoneStatus(status)
					patch.Status = &s
				}
				if cmd.Flags().Changed("evidence-uri") {
					patch.Evidence = &domain.Evidence{URI: evidenceURI}
				}
				m, err := e.UpdateMilestone(ctx, id, patch, cliActor())
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "milestone id")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&evidenceURI, "evidence-uri", "", "evidence link")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func attestCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "attest", Short: "Attestation ledger"}
	cmd.AddCommand(attestListCmd())
	cmd.AddCommand(attestChainCmd())
	return cmd
}

func attestListCmd() *cobra.Command {
	var initiativeID int64
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List attestations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var filter *int64
				if initiativeID > 0 {
					filter = &initiativeID
				}
				items, err := e.ListAttestations(ctx, filter, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "Initiative", "At"})
				for _, a := range items {
					initiative := ""
					if a.InitiativeID != nil {
						initiative = fmt.Sprintf("%d", *a.InitiativeID)
					}
					tw.AppendRow(table.Row{a.ID, a.Type, initiative, time.Unix(a.CreatedAt, 0).Format(time.RFC3339)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&initiativeID, "initiative", 0, "filter by initiative id")
	cmd.Flags().IntVar(&limit, "limit", 0, "max entries (default 200)")
	return cmd
}

func attestChainCmd() *cobra.Command {
	var attType, txHash, easUID, payload string
	var initiativeID, chainID int64
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Record an externally anchored attestation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.ChainAttestationOptions{
					Type:   attType,
					TxHash: txHash,
					EASUID: easUID,
				}
				if payload != "" {
					if err := json.Unmarshal([]byte(payload), &opts.Payload); err != nil {
						return fmt.Errorf("parse payload: %w", err)
					}
				}
				if initiativeID > 0 {
					opts.InitiativeID = &initiativeID
				}
				if chainID > 0 {
					opts.ChainID = &chainID
				}
				id, err := e.RecordChainAttestation(ctx, opts, cliActor())
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]int64{"id": id})
			})
		},
	}
	cmd.Flags().StringVar(&attType, "type", "", "attestation type")
	cmd.Flags().StringVar(&payload, "payload", "", "JSON payload")
	cmd.Flags().Int64Var(&initiativeID, "initiative", 0, "initiative id")
	cmd.Flags().Int64Var(&chainID, "chain-id", 0, "chain id")
	cmd.Flags().StringVar(&txHash, "tx-hash", "", "transaction hash")
	cmd.Flags().StringVar(&easUID, "eas-uid", "", "EAS attestation uid")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func identityCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "identity", Short: "Individuals and organizations"}

	individual := &cobra.Command{Use: "individual", Short: "Manage individuals"}
	individual.AddCommand(individualAddCmd())
	individual.AddCommand(individualListCmd())
	cmd.AddCommand(individual)

	org := &cobra.Command{Use: "org", Short: "Manage organizations"}
	org.AddCommand(orgAddCmd())
	org.AddCommand(orgListCmd())
	org.AddCommand(orgMemberCmd())
	cmd.AddCommand(org)

	return cmd
}

func individualAddCmd() *cobra.Command {
	var name, address string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register individual",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				ind, err := e.RegisterIndividual(ctx, name, address)
				if err != nil {
					return err
				}
				return printJSONOrTable(ind)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&address, "address", "", "wallet address")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func individualListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List individuals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListIndividuals(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
}

func orgAddCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				org, err := e.RegisterOrganization(ctx, name)
				if err != nil {
					return err
				}
				return printJSONOrTable(org)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "organization name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func orgListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List organizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListOrganizations(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
}

func orgMemberCmd() *cobra.Command {
	var orgID, individualID int64
	var role string
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Add organization member",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.AddOrganizationMember(ctx, orgID, individualID, role); err != nil {
					return err
				}
				fmt.Println("ok")
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&orgID, "org", 0, "organization id")
	cmd.Flags().Int64Var(&individualID, "individual", 0, "individual id")
	cmd.Flags().StringVar(&role, "role", "member", "membership role")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("individual")
	return cmd
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "catalog", Short: "Capability catalog"}
	cmd.AddCommand(catalogSetCmd())
	cmd.AddCommand(catalogListCmd())
	cmd.AddCommand(catalogRemoveCmd())
	cmd.AddCommand(catalogImportCmd())
	return cmd
}

func catalogSetCmd() *cobra.Command {
	var key, label, description string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update a capability",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd.Context(), func(ctx context.Context, c catalog.Catalog) error {
				item, err := c.Upsert(ctx, key, label, description)
				if err != nil {
					return err
				}
				return printJSONOrTable(item)
			})
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "capability key")
	cmd.Flags().StringVar(&label, "label", "", "display label")
	cmd.Flags().StringVar(&description, "description", "", "description")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("label")
	return cmd
}

func catalogListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd.Context(), func(ctx context.Context, c catalog.Catalog) error {
				items, err := c.List(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
}

func catalogRemoveCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "rm",
		Short: "Delete capability",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd.Context(), func(ctx context.Context, c catalog.Catalog) error {
				if err := c.Delete(ctx, key); err != nil {
					return err
				}
				fmt.Println("ok")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "capability key")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func catalogImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import capabilities from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			return withCatalog(cmd.Context(), func(ctx context.Context, c catalog.Catalog) error {
				n, err := c.ImportYAML(ctx, data)
				if err != nil {
					return err
				}
				fmt.Printf("imported %d capabilities\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML file path")
	_ = cmd.MarkFlagRequired("file")
	return cmd
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
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if basePath == "" {
				basePath = cfg.Server.BasePath
			}
			e := engine.New(conn, cfg)
			if err := e.Schema.Ensure(cmd.Context()); err != nil {
				return err
			}
			authCfg := server.AuthConfig{
				JWTSecret:        cfg.Server.JWTSecret,
				AllowActorHeader: cfg.Server.AllowActorHeader,
			}
			if secret := os.Getenv("GSW_JWT_SECRET"); secret != "" {
				authCfg.JWTSecret = secret
			}
			handler, err := server.New(server.Config{
				Engine:   e,
				Catalog:  catalog.Catalog{Repo: e.Repo},
				BasePath: basePath,
				Auth:     authCfg,
			})
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
			fmt.Printf("Serving Groundswell API on http://%s%s (OpenAPI at %s/openapi.json)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (default from config)")
	return cmd
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	return fn(ctx, engine.New(conn, cfg))
}

func withCatalog(ctx context.Context, fn func(context.Context, catalog.Catalog) error) error {
	return withEngine(ctx, func(ctx context.Context, e engine.Engine) error {
		if err := e.Schema.Ensure(ctx); err != nil {
			return err
		}
		return fn(ctx, catalog.Catalog{Repo: e.Repo})
	})
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
