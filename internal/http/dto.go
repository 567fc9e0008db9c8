// Package http реализует HTTP-обработчики и DTO поверх доменных сервисов.
package http

import "team-roster-service/internal/model"

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type rosterResponse struct {
	Roster model.RosterSnapshot `json:"roster"`
}

type updateRosterRequest struct {
	Members []model.UpdateEntry `json:"members"`
}

type meResponse struct {
	User model.CurrentUser `json:"user"`
}

type searchPeopleResponse struct {
	People []model.Person `json:"people"`
}
