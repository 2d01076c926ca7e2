package resource

const (
	CmdHelp         = "help"
	CmdEvents       = "events"
	CmdOrganization = "organization"
	CmdDepartment   = "department"
	CmdJoin         = "join"
	CmdTeam         = "team"
	CmdStart        = "start"
	CmdAnswer       = "answer"
	CmdChoose       = "choose"
	CmdPhoto        = "photo"
	CmdHint         = "hint"
	CmdSkip         = "skip"
	CmdVote         = "vote"
	CmdScores       = "scores"
	CmdRefresh      = "refresh"
	CmdSync         = "sync"
	CmdStatus       = "status"
	CmdLeave        = "leave"
	CmdQuit         = "quit"
)
