package models

// This file serves as the central export point for all model types
// Import this package to access all model types

// All models are automatically exported from their respective files:
// - User from user.go
// - InterviewSession, ResumeData, QAPair from session.go
// - DiscussionSession, Participant, Turn, BehaviorTracking from discussion.go
// - EvaluationResult, AnswerAnalysis from evaluation.go
// - AssessmentRecord from record.go

// Storage overview:
// 1. users - seeded accounts for cookie/bearer authentication
// 2. assessment_records - durable snapshots of interview and group
//    discussion sessions (authoritative once a session completes)
//
// Live sessions (InterviewSession, DiscussionSession) are held in the
// in-memory session store only and never persisted directly; the durable
// layer stores JSON snapshots and final results instead.
