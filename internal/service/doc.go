// Package service contains the application services sitting between the
// HTTP surface and the pipeline: job creation with quota enforcement and
// asset ingestion, and job lookup for status polling.
package service
