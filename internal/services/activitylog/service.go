// Package activitylog stores the request log written by the gateway and answers the analytics queries over it.
package activitylog

import (
	"context"
	"net/http"

	"diagram-hub/internal/pagination"
	"diagram-hub/internal/repository"
	"diagram-hub/internal/rpc"
	"diagram-hub/internal/schemas"
	"diagram-hub/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const defaultRankingLimit = 10

type Service struct {
	logs repository.Store[schemas.ActivityLog]
}

func NewService(logs repository.Store[schemas.ActivityLog]) *Service {
	return &Service{logs: logs}
}

// Register binds the activity-log message patterns to the service.
func (s *Service) Register(srv *rpc.Server) {
	rpc.Handle(srv, schemas.PatternCreateActivityLog, s.Create)
	rpc.Handle(srv, schemas.PatternCreateActivityLogs, s.CreateMany)
	rpc.Handle(srv, schemas.PatternGetAllActivities, s.GetAllActivityLog)
	rpc.Handle(srv, schemas.PatternGetMostVisitedAPI, s.GetMostVisitedAPI)
	rpc.Handle(srv, schemas.PatternGetMostVisitedUser, s.GetMostVisitedUser)
}

func toDocument(req *schemas.CreateActivityLogRequest) *schemas.ActivityLog {
	return &schemas.ActivityLog{
		Method:       req.Method,
		URL:          req.URL,
		StatusCode:   req.StatusCode,
		UserID:       req.UserID,
		UserEmail:    req.UserEmail,
		IPAddress:    req.IPAddress,
		RequestBody:  req.RequestBody,
		QueryParams:  req.QueryParams,
		ResponseTime: req.ResponseTime,
		ErrorMessage: req.ErrorMessage,
	}
}

// Record appends one log entry. It is the sink of the background ingestion task.
func (s *Service) Record(ctx context.Context, req *schemas.CreateActivityLogRequest) error {
	_, err := s.logs.Create(ctx, toDocument(req))
	return err
}

func (s *Service) Create(ctx context.Context, req *schemas.CreateActivityLogRequest) *schemas.Envelope {
	activityLog, err := s.logs.Create(ctx, toDocument(req))
	if err != nil {
		return schemas.Failure(err)
	}
	return schemas.Success(http.StatusCreated, activityLog)
}

func (s *Service) CreateMany(ctx context.Context, req *schemas.CreateActivityLogsRequest) *schemas.Envelope {
	docs := make([]*schemas.ActivityLog, 0, len(req.Logs))
	for i := range req.Logs {
		docs = append(docs, toDocument(&req.Logs[i]))
	}

	created, err := s.logs.CreateMany(ctx, docs)
	if err != nil {
		return schemas.Failure(err)
	}
	return schemas.Success(http.StatusCreated, &schemas.CountDTO{Count: int64(len(created))})
}

// GetAllActivityLog lists log entries filtered by method, status, url, free text and date.
func (s *Service) GetAllActivityLog(ctx context.Context, req *schemas.GetActivityLogsRequest) *schemas.Envelope {
	filter := bson.M{}
	if createdAt := utils.BuildDateRangeFilter(req.StartDate, req.EndDate); createdAt != nil {
		filter["createdAt"] = createdAt
	}
	if req.Method != "" {
		filter["method"] = req.Method
	}
	if req.StatusCode != 0 {
		filter["statusCode"] = req.StatusCode
	}
	if req.URL != "" {
		filter["url"] = req.URL
	}

	logs := s.logs.Paginate(ctx, pagination.Options{
		Filter: filter,
		Search: req.Search,
		Limit:  req.Limit,
		Offset: req.Offset,
		All:    !req.Meta,
	})
	return schemas.Success(http.StatusOK, logs)
}

func rankingLimit(limit int) int {
	if limit <= 0 {
		return defaultRankingLimit
	}
	return limit
}

func rankingMatch(req *schemas.MostVisitedRequest) bson.M {
	match := bson.M{}
	if createdAt := utils.BuildDateRangeFilter(req.StartDate, req.EndDate); createdAt != nil {
		match["createdAt"] = createdAt
	}
	return match
}

// GetMostVisitedAPI ranks endpoints (url and method) by number of requests.
func (s *Service) GetMostVisitedAPI(ctx context.Context, req *schemas.MostVisitedRequest) *schemas.Envelope {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: rankingMatch(req)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.M{"url": "$url", "method": "$method"}},
			{Key: "count", Value: bson.M{"$sum": 1}},
			{Key: "statusCode", Value: bson.M{"$first": "$statusCode"}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		{{Key: "$limit", Value: rankingLimit(req.Limit)}},
		{{Key: "$project", Value: bson.M{
			"_id":        0,
			"url":        "$_id.url",
			"method":     "$_id.method",
			"count":      1,
			"statusCode": 1,
		}}},
	}

	apis := []schemas.VisitedAPI{}
	if err := s.logs.Aggregate(ctx, pipeline, &apis); err != nil {
		utils.LogMessageWithFields(ctx, "error", "Most visited API query failed: "+err.Error())
		return schemas.Failure(err)
	}
	return schemas.Success(http.StatusOK, &schemas.MostVisitedAPIDTO{MostVisitedAPIs: apis})
}

// GetMostVisitedUser ranks callers by number of requests. A caller is identified by user id,
// or by email when the entry has no id.
func (s *Service) GetMostVisitedUser(ctx context.Context, req *schemas.MostVisitedRequest) *schemas.Envelope {
	match := rankingMatch(req)
	match["$or"] = bson.A{
		bson.M{"userId": bson.M{"$exists": true, "$nin": bson.A{nil, ""}}},
		bson.M{"userEmail": bson.M{"$exists": true, "$nin": bson.A{nil, ""}}},
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$addFields", Value: bson.M{
			"userIdentifier": bson.M{"$cond": bson.M{
				"if":   bson.M{"$gt": bson.A{bson.M{"$strLenCP": bson.M{"$ifNull": bson.A{"$userId", ""}}}, 0}},
				"then": "$userId",
				"else": "$userEmail",
			}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$userIdentifier"},
			{Key: "count", Value: bson.M{"$sum": 1}},
			{Key: "userId", Value: bson.M{"$first": "$userId"}},
			{Key: "userEmail", Value: bson.M{"$first": "$userEmail"}},
			{Key: "ipAddress", Value: bson.M{"$first": "$ipAddress"}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		{{Key: "$limit", Value: rankingLimit(req.Limit)}},
		{{Key: "$project", Value: bson.M{
			"_id":       0,
			"userId":    1,
			"userEmail": 1,
			"count":     1,
			"ipAddress": 1,
		}}},
	}

	users := []schemas.VisitedUser{}
	if err := s.logs.Aggregate(ctx, pipeline, &users); err != nil {
		utils.LogMessageWithFields(ctx, "error", "Most visited user query failed: "+err.Error())
		return schemas.Failure(err)
	}
	return schemas.Success(http.StatusOK, &schemas.MostVisitedUserDTO{MostVisitedUsers: users})
}
