package routers

import (
	"caresync-service/internal/app/delivery/http/middlewares"
	"caresync-service/internal/app/services/patients"

	"github.com/go-chi/chi/v5"
)

func attachPatientRoutes(router chi.Router, middlewares *middlewares.Middlewares, patientController *patients.PatientController) {
	router.With(middlewares.APIKeyAuth).Get("/", patientController.Search)
	router.With(middlewares.APIKeyAuth).Post("/", patientController.CreateDraft)
	router.With(middlewares.APIKeyAuth).Get("/{local_id}", patientController.GetRecord)
	router.With(middlewares.APIKeyAuth).Put("/{local_id}", patientController.UpdateDraft)
	router.With(middlewares.APIKeyAuth).Post("/{local_id}/upload", patientController.Upload)
	router.With(middlewares.APIKeyAuth).Post("/{local_id}/download", patientController.Download)
	router.With(middlewares.APIKeyAuth).Post("/{local_id}/photo", patientController.UploadPhoto)
}
