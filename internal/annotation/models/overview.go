package models

import "contractdesk/pkg/domain"

// Overview is a contract's discussion threads and issues read together.
type Overview struct {
	ContractID   domain.ContractID
	Threads      []*Thread
	CommentCount int
	Issues       []*Issue
	IssueCounts  map[IssueStatus]int
}

// NewOverview counts comments across all threads and issues by status.
func NewOverview(contractID domain.ContractID, threads []*Thread, issues []*Issue) *Overview {
	o := &Overview{
		ContractID:  contractID,
		Threads:     threads,
		Issues:      issues,
		IssueCounts: make(map[IssueStatus]int),
	}
	var count func(ts []*Thread)
	count = func(ts []*Thread) {
		for _, t := range ts {
			o.CommentCount++
			count(t.Replies)
		}
	}
	count(threads)
	for _, i := range issues {
		o.IssueCounts[i.Status]++
	}
	return o
}
