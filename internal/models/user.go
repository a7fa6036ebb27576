package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username       string `json:"username" gorm:"uniqueIndex"`
	Email          string `json:"email" gorm:"uniqueIndex"`
	PasswordHash   string `json:"-"`
	GithubUsername string `json:"github_username"`
	JiraAccountID  string `json:"jira_account_id"`
}
