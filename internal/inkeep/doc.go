// Package inkeep is a thin client for the Inkeep chat-completions API.
//
// The API is OpenAI-compatible: a POST to /chat/completions with a
// model and messages. Two models matter here: inkeep-qa-expert answers
// questions with cited sources, and inkeep-rag retrieves sources
// without synthesizing an answer. Answers are cached in-process by a
// hash of model and question, and transient failures (429 and 5xx)
// are retried with exponential backoff.
package inkeep
