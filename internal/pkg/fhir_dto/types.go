package fhir_dto

import "time"

type HumanName struct {
	Use    string   `json:"use,omitempty" bson:"use,omitempty"`
	Text   string   `json:"text,omitempty" bson:"text,omitempty"`
	Family string   `json:"family,omitempty" bson:"family,omitempty"`
	Given  []string `json:"given,omitempty" bson:"given,omitempty"`
	Prefix []string `json:"prefix,omitempty" bson:"prefix,omitempty"`
}

type ContactPoint struct {
	System string `json:"system" bson:"system"`
	Value  string `json:"value" bson:"value"`
	Use    string `json:"use" bson:"use"`
}

type Attachment struct {
	ContentType string `json:"contentType,omitempty" bson:"contentType,omitempty"`
	Data        string `json:"data,omitempty" bson:"data,omitempty"`
	Url         string `json:"url,omitempty" bson:"url,omitempty"`
	Size        int64  `json:"size,omitempty" bson:"size,omitempty"`
	Title       string `json:"title,omitempty" bson:"title,omitempty"`
	Creation    string `json:"creation,omitempty" bson:"creation,omitempty"`
}

type Meta struct {
	VersionId   string    `json:"versionId,omitempty" bson:"versionId,omitempty"`
	LastUpdated time.Time `json:"lastUpdated,omitempty" bson:"lastUpdated,omitempty"`
	Source      string    `json:"source,omitempty" bson:"source,omitempty"`
}

type OperationOutcome struct {
	ResourceType string  `json:"resourceType,omitempty"`
	Issue        []Issue `json:"issue,omitempty"`
}

type Issue struct {
	Severity    string `json:"severity,omitempty"`
	Code        string `json:"code,omitempty"`
	Diagnostics string `json:"diagnostics,omitempty"`
}
