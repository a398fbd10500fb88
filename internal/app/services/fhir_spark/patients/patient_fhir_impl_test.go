package patients

import (
	"caresync-service/internal/pkg/constvars"
	"caresync-service/internal/pkg/exceptions"
	"caresync-service/internal/pkg/fhir_dto"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type stubSigner struct{}

func (stubSigner) CreateToken(ctx context.Context, subject string) (string, error) {
	return "test-token", nil
}

func newTestClient(server *httptest.Server) *patientFhirClient {
	return &patientFhirClient{
		BaseUrl:    server.URL + "/" + constvars.ResourcePatient,
		HTTPClient: server.Client(),
		Signer:     stubSigner{},
		Limiter:    rate.NewLimiter(rate.Inf, 1),
		Log:        zap.NewNop(),
	}
}

func TestPatientFhirClient_CreatePatient(t *testing.T) {
	t.Run("posts without id and returns the canonical resource", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/Patient", r.URL.Path)
			assert.Equal(t, constvars.MIMEApplicationFHIRJSON, r.Header.Get(constvars.HeaderContentType))
			assert.Equal(t, constvars.PreferReturnRepresentation, r.Header.Get(constvars.HeaderPrefer))
			assert.Equal(t, "Bearer test-token", r.Header.Get(constvars.HeaderAuthorization))

			var body fhir_dto.Patient
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Empty(t, body.ID, "create must not carry a client-assigned id")

			body.ID = "42"
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(body)
		}))
		defer server.Close()

		client := newTestClient(server)
		created, err := client.CreatePatient(context.Background(), &fhir_dto.Patient{
			ResourceType: constvars.ResourcePatient,
			Name:         []fhir_dto.HumanName{{Family: "Doe", Given: []string{"Jane"}}},
		})
		require.NoError(t, err)
		assert.Equal(t, "42", created.ID)
	})

	t.Run("non-success status surfaces as a remote error with status and body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"resourceType":"OperationOutcome"}`))
		}))
		defer server.Close()

		client := newTestClient(server)
		_, err := client.CreatePatient(context.Background(), &fhir_dto.Patient{ResourceType: constvars.ResourcePatient})
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.True(t, errors.As(err, &customErr))
		assert.Equal(t, exceptions.KindRemote, customErr.Kind)
		assert.Equal(t, http.StatusUnprocessableEntity, customErr.UpstreamStatus)
		assert.Equal(t, `{"resourceType":"OperationOutcome"}`, customErr.UpstreamBody)
	})

	t.Run("transport failure surfaces as a transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		client := newTestClient(server)
		server.Close()

		_, err := client.CreatePatient(context.Background(), &fhir_dto.Patient{ResourceType: constvars.ResourcePatient})
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.True(t, errors.As(err, &customErr))
		assert.Equal(t, exceptions.KindTransport, customErr.Kind)
	})
}

func TestPatientFhirClient_UpdatePatient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/Patient/42", r.URL.Path)
		assert.Equal(t, constvars.PreferReturnRepresentation, r.Header.Get(constvars.HeaderPrefer))

		var body fhir_dto.Patient
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	client := newTestClient(server)
	updated, err := client.UpdatePatient(context.Background(), &fhir_dto.Patient{
		ID:           "42",
		ResourceType: constvars.ResourcePatient,
	})
	require.NoError(t, err)
	assert.Equal(t, "42", updated.ID)
}

func TestPatientFhirClient_FindPatientByID(t *testing.T) {
	t.Run("fetches by id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/Patient/42", r.URL.Path)
			json.NewEncoder(w).Encode(fhir_dto.Patient{ID: "42", ResourceType: constvars.ResourcePatient})
		}))
		defer server.Close()

		client := newTestClient(server)
		patient, err := client.FindPatientByID(context.Background(), "42")
		require.NoError(t, err)
		assert.Equal(t, "42", patient.ID)
	})

	t.Run("missing resource surfaces the upstream 404", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("gone"))
		}))
		defer server.Close()

		client := newTestClient(server)
		_, err := client.FindPatientByID(context.Background(), "42")
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.True(t, errors.As(err, &customErr))
		assert.Equal(t, http.StatusNotFound, customErr.UpstreamStatus)
		assert.Equal(t, "gone", customErr.UpstreamBody)
	})
}

func TestPatientFhirClient_FindPatientByFamilyName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Doe", r.URL.Query().Get(constvars.FhirSearchParamFamily))

		patientJSON, _ := json.Marshal(fhir_dto.Patient{ID: "42", ResourceType: constvars.ResourcePatient})
		outcomeJSON, _ := json.Marshal(map[string]string{"resourceType": "OperationOutcome"})
		bundle := fhir_dto.FHIRBundle{
			ResourceType: constvars.ResourceBundle,
			Type:         constvars.FhirBundleTypeSearchset,
			Total:        1,
			Entry: []fhir_dto.Entry{
				{Resource: patientJSON},
				{Resource: outcomeJSON},
			},
		}
		json.NewEncoder(w).Encode(bundle)
	}))
	defer server.Close()

	client := newTestClient(server)
	results, err := client.FindPatientByFamilyName(context.Background(), "Doe")
	require.NoError(t, err)
	require.Len(t, results, 1, "non-patient bundle entries are skipped")
	assert.Equal(t, "42", results[0].ID)
}
