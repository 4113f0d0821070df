package schemas

// Message patterns understood by the user service.
const (
	PatternGetAllUser     = "get-all-user"
	PatternSignUp         = "sign-up"
	PatternLogIn          = "log-in"
	PatternGenerateOTP    = "generate-otp"
	PatternForgotPassword = "forgot-password"
	PatternGetProfile     = "get-profile"
	PatternChangePassword = "change-password"
	PatternLogOut         = "logOut"
)

// Message patterns understood by the diagram service.
const (
	PatternCreateDiagram      = "create_diagram"
	PatternGetDiagrams        = "get_diagram"
	PatternGetDiagramByID     = "get_by_id_diagram"
	PatternUpdateDiagram      = "update_diagram"
	PatternDeleteDiagram      = "delete_diagram"
	PatternImportSlugsDiagram = "import_slugs_diagram"
)

// Message patterns understood by the activity-log service.
const (
	PatternCreateActivityLog  = "activity_log"
	PatternCreateActivityLogs = "multiple_activity_log"
	PatternGetAllActivities   = "get_all_activities"
	PatternGetMostVisitedAPI  = "get_most_visited_api"
	PatternGetMostVisitedUser = "get_most_visited_user"
)

// Service names used to pick the queue a pattern is sent to.
const (
	UserService        = "user"
	DiagramService     = "diagram"
	ActivityLogService = "activity-log"
)
