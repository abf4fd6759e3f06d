package entities

import (
	"agrosync/internal/domain/entity"
)

type listInput struct {
	Type string `path:"type" doc:"Тип сущности (profile, land_parcel, crop_schedule, chat_session)"`
}

type listOutput struct {
	Body ListResponse
}

// ListResponse — полный авторитетный набор записей типа в рамках
// арендатора и фермера, включая мягко удаленные.
type ListResponse struct {
	Records []*entity.Record `json:"records"`
}

type getInput struct {
	Type string `path:"type"`
	ID   string `path:"id"`
}

type getOutput struct {
	Body entity.Record
}

type upsertInput struct {
	Type string `path:"type"`
	Body entity.Record
}

type updateInput struct {
	Type string `path:"type"`
	ID   string `path:"id"`
	Body entity.Record
}

type statusOutput struct {
	Body StatusResponse
}

type StatusResponse struct {
	Status string `json:"status"`
}
