package server

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"groundswell/internal/catalog"
	"groundswell/internal/domain"
	"groundswell/internal/engine"
	"groundswell/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	Catalog  catalog.Catalog
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"initiative 42 not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Groundswell API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(requestIDMiddleware)
	router.Use(newAuthMiddleware(cfg.Auth))
	hcfg := huma.DefaultConfig("Groundswell API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerInitiatives(group, cfg.Engine)
	registerParticipants(group, cfg.Engine)
	registerWorkstreams(group, cfg.Engine)
	registerOpportunities(group, cfg.Engine)
	registerEngagements(group, cfg.Engine)
	registerMilestones(group, cfg.Engine)
	registerAttestations(group, cfg.Engine)
	registerIdentity(group, cfg.Engine)
	registerCapabilities(group, cfg.Catalog)

	return router, nil
}

// requestIDMiddleware tags every request for log correlation.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var ve engine.ValidationError
	if errors.As(err, &ve) {
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), map[string]any{"field": ve.Field})
	}
	var nfe engine.NotFoundError
	if errors.As(err, &nfe) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), map[string]any{"entity": nfe.Entity})
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func actorFromContext(ctx context.Context) engine.Actor {
	p, ok := principalFromContext(ctx)
	if !ok {
		return engine.Actor{}
	}
	return engine.Actor{IndividualID: p.IndividualID, OrgID: p.OrgID, Address: p.Address}
}

var mutationErrors = []int{
	http.StatusBadRequest,
	http.StatusUnauthorized,
	http.StatusNotFound,
	http.StatusUnprocessableEntity,
	http.StatusInternalServerError,
}

type IDPath struct {
	ID int64 `path:"id"`
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerInitiatives(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-initiative",
		Method:        http.MethodPost,
		Path:          "/initiatives",
		Summary:       "Create initiative",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateInitiativeRequest `json:"body"`
	}) (*struct {
		Body domain.Initiative `json:"body"`
	}, error) {
		in, err := e.CreateInitiative(ctx, input.Body.options(), actorFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Initiative `json:"body"`
		}{Body: in}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-initiatives",
		Method:      http.MethodGet,
		Path:        "/initiatives",
		Summary:     "List initiatives",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Scope string `query:"scope" enum:"all,active,mine" default:"all"`
	}) (*struct {
		Body []domain.Initiative `json:"body"`
	}, error) {
		act := actorFromContext(ctx)
		resolved, err := e.ListInitiatives(ctx, input.Scope, act.IndividualID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Initiative `json:"body"`
		}{Body: resolved}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-initiative",
		Method:      http.MethodGet,
		Path:        "/initiatives/{id}",
		Summary:     "Get initiative",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *IDPath) (*struct {
		Body domain.Initiative `json:"body"`
	}, error) {
		in, err := e.GetInitiative(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Initiative `json:"body"`
		}{Body: in}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-initiative",
		Method:      http.MethodPatch,
		Path:        "/initiatives/{id}",
		Summary:     "Update initiative",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		IDPath
		Body UpdateInitiativeRequest `json:"body"`
	}) (*struct {
		Body domain.Initiative `json:"body"`
	}, error) {
		in, err := e.UpdateInitiative(ctx, input.ID, input.Body.patch(), actorFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Initiative `json:"body"`
		}{Body: in}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "initiative-dashboard",
		Method:      http.MethodGet,
		Path:        "/initiatives/{id}/dashboard",
		Summary:     "Initiative dashboard",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *IDPath) (*struct {
		Body domain.Dashboard `json:"body"`
	}, error) {
		d, err := e.GetDashboard(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Dashboard `json:"body"`
		}{Body: d}, nil
	})
}

func registerParticipants(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "initiative-participants",
		Method:      http.MethodPost,
		Path:        "/initiatives/{id}/participants",
		Summary:     "Add, remove, or update a participant",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		IDPath
		Body ParticipantActionRequest `json:"body"`
	}) (*struct {
		Body []domain.Participant `json:"body"`
	}, error) {
		err := e.UpsertParticipant(ctx, input.ID, input.Body.Action, input.Body.Participant.input(), actorFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		items, err := e.Repo.ListParticipants(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Participant `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-participants",
		Method:      http.MethodGet,
		Path:        "/initiatives/{id}/participants",
		Summary:     "List participants",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *IDPath) (*struct {
		Body []domain.Participant `json:"body"`
	}, error) {
		items, err := e.Repo.ListParticipants(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Participant `json:"body"`
		}{Body: items}, nil
	})
}

func registerWorkstreams(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-workstream",
		Method:        http.MethodPost,
		Path:          "/initiatives/{id}/workstreams",
		Summary:       "Create workstream",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		IDPath
		Body CreateWorkstreamRequest `json:"body"`
	}) (*struct {
		Body domain.Workstream `json:"body"`
	}, error) {
		ws, err := e.CreateWorkstream(ctx, input.ID, engine.WorkstreamCreateOptions{
			Title:       input.Body.Title,
			Description: input.Body.Description,
			Status:      input.Body.Status,
			SortOrder:   input.Body.SortOrder,
		}, actorFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Workstream `json:"body"`
		}{Body: ws}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-workstreams",
		Method:      http.MethodGet,
		Path:        "/initiatives/{id}/workstreams",
		Summary:     "List workstreams",
	}, func(ctx context.Context, input *IDPath) (*struct {
		Body []domain.Workstream `json:"body"`
	}, error) {
		items, err := e.Repo.ListWorkstreams(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Workstream `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-outcome",
		Method:        http.MethodPost,
		Path:          "/initiatives/{id}/outcomes",
		Summary:       "Create outcome",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		IDPath
		Body CreateOutcomeRequest `json:"body"`
	}) (*struct {
		Body domain.Outcome `json:"body"`
	}, error) {
		out, err := e.CreateOutcome(ctx, input.ID, engine.OutcomeCreateOptions{
			Title:  input.Body.Title,
			Metric: input.Body.Metric,
			Status: input.Body.Status,
		}, actorFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Outcome `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-outcomes",
		Method:      http.MethodGet,
		Path:        "/initiatives/{id}/outcomes",
		Summary:     "List outcomes",
	}, func(ctx context.Context, input *IDPath) (*struct {
		Body []domain.Outcome `json:"body"`
	}, error) {
		items, err := e.Repo.ListOutcomes(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Outcome `json:"body"`
		}{Body: items}, nil
	})
}

func registerOpportunities(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-opportunity",
		Method:        http.MethodPost,
		Path:          "/initiatives/{id}/opportunities",
		Summary:       "Create opportunity",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		IDPath
		Body CreateOpportunityRequest `json:"body"`
	}) (*struct {
		Body domain.Opportunity `json:"body"`
	}, error) {
		opp, err := e.CreateOpportunity(ctx, input.ID, engine.OpportunityCreateOptions{
			WorkstreamID:   input.Body.WorkstreamID,
			Title:          input.Body.Title,
			Description:    input.Body.Description,
			RequiredSkills: input.Body.RequiredSkills,
			Budget:         input.Body.Budget,
			Status:         domain.OpportunityStatus(input.Body.Status),
		}, actorFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Opportunity `json:"body"`
		}{Body: opp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-opportunities",
		Method:      http.MethodGet,
		Path:        "/initiatives/{id}/opportunities",
		Summary:     "List opportunities",
	}, func(ctx context.Context, input *struct {
		IDPath
		Limit int `query:"limit" default:"50" minimum:"1" maximum:"200"`
	}) (*struct {
		Body []domain.Opportunity `json:"body"`
	}, error) {
		items, err := e.Repo.ListOpportunities(ctx, input.ID, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Opportunity `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-opportunity",
		Method:      http.MethodGet,
		Path:        "/opportunities/{id}",
		Summary:     "Get opportunity",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *IDPath) (*struct {
		Body domain.Opportunity `json:"body"`
	}, error) {
		opp, err := e.GetOpportunity(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Opportunity `json:"body"`
		}{Body: opp}, nil
	})
}

func registerEngagements(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-engagement",
		Method:        http.MethodPost,
		Path:          "/opportunities/{id}/engagements",
		Summary:       "Create engagement",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		IDPath
		Body CreateEngagementRequest `json:"body"`
	}) (*struct {
		Body domain.Engagement `json:"body"`
	}, error) {
		eng, err := e.CreateEngagement(ctx, input.ID, engine.EngagementCreateOptions{
			InitiativeID:            input.Body.InitiativeID,
			RequestingOrgID:         input.Body.RequestingOrgID,
			ContributorIndividualID: input.Body.ContributorIndividualID,
			ContributorAddress:      input.Body.ContributorAddress,
			ContributorAgentRowID:   input.Body.ContributorAgentRowID,
			Terms:                   input.Body.Terms,
			Status:                  domain.EngagementStatus(input.Body.Status),
		}, actorFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Engagement `json:"body"`
		}{Body: eng}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-engagement",
		Method:      http.MethodGet,
		Path:        "/engagements/{id}",
		Summary:     "Get engagement",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *IDPath) (*struct {
		Body domain.Engagement `json:"body"`
	}, error) {
		eng, err := e.GetEngagement(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Engagement `json:"body"`
		}{Body: eng}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-engagement",
		Method:      http.MethodPatch,
		Path:        "/engagements/{id}",
		Summary:     "Update engagement",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		IDPath
		Body UpdateEngagementRequest `json:"body"`
	}) (*struct {
		Body domain.Engagement `json:"body"`
	}, error) {
		eng, err := e.UpdateEngagement(ctx, input.ID, input.Body.patch(), actorFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Engagement `json:"body"`
		}{Body: eng}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-initiative-engagements",
		Method:      http.MethodGet,
		Path:        "/initiatives/{id}/engagements",
		Summary:     "List engagements for an initiative",
	}, func(ctx context.Context, input *struct {
		IDPath
		Limit int `query:"limit" default:"50" minimum:"1" maximum:"200"`
	}) (*struct {
		Body []domain.Engagement `json:"body"`
	}, error) {
		items, err := e.Repo.ListEngagements(ctx, input.ID, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Engagement `json:"body"`
		}{Body: items}, nil
	})
}

func registerMilestones(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-milestone",
		Method:        http.MethodPost,
		Path:          "/engagements/{id}/milestones",
		Summary:       "Create milestone",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		IDPath
		Body CreateMilestoneRequest `json:"body"`
	}) (*struct {
		Body domain.Milestone `json:"body"`
	}, error) {
		m, err := e.CreateMilestone(ctx, input.ID, engine.MilestoneCreateOptions{
			Title:    input.Body.Title,
			DueAt:    input.Body.DueAt,
			Status:   domain.MilestoneStatus(input.Body.Status),
			Evidence: input.Body.Evidence,
			Payout:   input.Body.Payout,
		}, actorFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Milestone `json:"body"`
		}{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-engagement-milestones",
		Method:      http.MethodGet,
		Path:        "/engagements/{id}/milestones",
		Summary:     "List milestones for an engagement",
	}, func(ctx context.Context, input *IDPath) (*struct {
		Body []domain.Milestone `json:"body"`
	}, error) {
		items, err := e.Repo.ListMilestonesByEngagement(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Milestone `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-milestone",
		Method:      http.MethodGet,
		Path:        "/milestones/{id}",
		Summary:     "Get milestone",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *IDPath) (*struct {
		Body domain.Milestone `json:"body"`
	}, error) {
		m, err := e.GetMilestone(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Milestone `json:"body"`
		}{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-milestone",
		Method:      http.MethodPatch,
		Path:        "/milestones/{id}",
		Summary:     "Update milestone",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		IDPath
		Body UpdateMilestoneRequest `json:"body"`
	}) (*struct {
		Body domain.Milestone `json:"body"`
	}, error) {
		m, err := e.UpdateMilestone(ctx, input.ID, input.Body.patch(), actorFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Milestone `json:"body"`
		}{Body: m}, nil
	})
}

// optionalInt64Param receives an optional int64 query parameter; huma rejects
// pointer fields for params, so this wraps the value per huma's ParamWrapper /
// ParamReactor contract.
type optionalInt64Param struct {
	Value int64
	IsSet bool
}

func (o optionalInt64Param) Schema(r huma.Registry) *huma.Schema {
	return huma.SchemaFromType(r, reflect.TypeOf(o.Value))
}

func (o *optionalInt64Param) Receiver() reflect.Value {
	return reflect.ValueOf(o).Elem().Field(0)
}

func (o *optionalInt64Param) OnParamSet(isSet bool, parsed any) {
	o.IsSet = isSet
}

func (o *optionalInt64Param) ptr() *int64 {
	if !o.IsSet {
		return nil
	}
	return &o.Value
}

func registerAttestations(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-attestations",
		Method:      http.MethodGet,
		Path:        "/attestations",
		Summary:     "Attestation feed, newest first",
	}, func(ctx context.Context, input *struct {
		InitiativeID optionalInt64Param `query:"initiative_id"`
		Limit        int                `query:"limit" default:"200" minimum:"1" maximum:"200"`
	}) (*struct {
		Body []domain.Attestation `json:"body"`
	}, error) {
		items, err := e.ListAttestations(ctx, input.InitiativeID.ptr(), input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Attestation `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "initiative-attestations",
		Method:      http.MethodGet,
		Path:        "/initiatives/{id}/attestations",
		Summary:     "Attestation feed for an initiative",
	}, func(ctx context.Context, input *struct {
		IDPath
		Limit int `query:"limit" default:"200" minimum:"1" maximum:"200"`
	}) (*struct {
		Body []domain.Attestation `json:"body"`
	}, error) {
		items, err := e.ListAttestations(ctx, &input.ID, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Attestation `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "record-chain-attestation",
		Method:        http.MethodPost,
		Path:          "/attestations/chain",
		Summary:       "Record an externally anchored attestation",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body ChainAttestationRequest `json:"body"`
	}) (*struct {
		Body map[string]int64 `json:"body"`
	}, error) {
		id, err := e.RecordChainAttestation(ctx, engine.ChainAttestationOptions{
			Type:          input.Body.Type,
			Payload:       input.Body.Payload,
			InitiativeID:  input.Body.InitiativeID,
			OpportunityID: input.Body.OpportunityID,
			EngagementID:  input.Body.EngagementID,
			MilestoneID:   input.Body.MilestoneID,
			ChainID:       input.Body.ChainID,
			TxHash:        input.Body.TxHash,
			EASUID:        input.Body.EASUID,
		}, actorFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]int64 `json:"body"`
		}{Body: map[string]int64{"id": id}}, nil
	})
}

func registerIdentity(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "register-individual",
		Method:        http.MethodPost,
		Path:          "/individuals",
		Summary:       "Register individual",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body RegisterIndividualRequest `json:"body"`
	}) (*struct {
		Body domain.Individual `json:"body"`
	}, error) {
		ind, err := e.RegisterIndividual(ctx, input.Body.Name, input.Body.WalletAddress)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Individual `json:"body"`
		}{Body: ind}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-individuals",
		Method:      http.MethodGet,
		Path:        "/individuals",
		Summary:     "List individuals",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Individual `json:"body"`
	}, error) {
		items, err := e.Repo.ListIndividuals(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Individual `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "register-organization",
		Method:        http.MethodPost,
		Path:          "/organizations",
		Summary:       "Register organization",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body RegisterOrganizationRequest `json:"body"`
	}) (*struct {
		Body domain.Organization `json:"body"`
	}, error) {
		org, err := e.RegisterOrganization(ctx, input.Body.Name)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Organization `json:"body"`
		}{Body: org}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-organizations",
		Method:      http.MethodGet,
		Path:        "/organizations",
		Summary:     "List organizations",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Organization `json:"body"`
	}, error) {
		items, err := e.Repo.ListOrganizations(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Organization `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-organization-member",
		Method:      http.MethodPost,
		Path:        "/organizations/{id}/members",
		Summary:     "Add organization member",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		IDPath
		Body AddMemberRequest `json:"body"`
	}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		if err := e.AddOrganizationMember(ctx, input.ID, input.Body.IndividualID, input.Body.Role); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerCapabilities(api huma.API, c catalog.Catalog) {
	type KeyPath struct {
		Key string `path:"key"`
	}

	huma.Register(api, huma.Operation{
		OperationID: "upsert-capability",
		Method:      http.MethodPut,
		Path:        "/capabilities/{key}",
		Summary:     "Create or update capability",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		KeyPath
		Body CapabilityRequest `json:"body"`
	}) (*struct {
		Body domain.Capability `json:"body"`
	}, error) {
		item, err := c.Upsert(ctx, input.Key, input.Body.Label, input.Body.Description)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Capability `json:"body"`
		}{Body: item}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-capability",
		Method:      http.MethodGet,
		Path:        "/capabilities/{key}",
		Summary:     "Get capability",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *KeyPath) (*struct {
		Body domain.Capability `json:"body"`
	}, error) {
		item, err := c.Get(ctx, input.Key)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Capability `json:"body"`
		}{Body: item}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-capability",
		Method:      http.MethodDelete,
		Path:        "/capabilities/{key}",
		Summary:     "Delete capability",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *KeyPath) (*struct{}, error) {
		if err := c.Delete(ctx, input.Key); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-capabilities",
		Method:      http.MethodGet,
		Path:        "/capabilities",
		Summary:     "List capabilities",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Capability `json:"body"`
	}, error) {
		items, err := c.List(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Capability `json:"body"`
		}{Body: items}, nil
	})
}
