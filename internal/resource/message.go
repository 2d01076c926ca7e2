// Package resource holds the texts and icons of the terminal client.
package resource

import "github.com/enescakir/emoji"

const ProjectName = "Campus Rally"

var (
	Greeting = emoji.Rocket.String() + " " + ProjectName + "\n" +
		"Type " + CmdHelp + " for the list of commands.\n"

	Help = "Commands:\n" +
		"  " + CmdEvents + "                   running events\n" +
		"  " + CmdOrganization + " <id> <name>    choose your organization\n" +
		"  " + CmdDepartment + " <id> <name>      only show events of a department\n" +
		"  " + CmdJoin + " <event id> [password]\n" +
		"  " + CmdTeam + " <name>               register a team\n" +
		"  " + CmdStart + "                     load the questions and play\n" +
		"  " + CmdAnswer + " <text>             answer a text, picture or QR question\n" +
		"  " + CmdChoose + " <n>                pick a multiple choice option\n" +
		"  " + CmdPhoto + " <file>              upload a photo answer\n" +
		"  " + CmdHint + "                      show the hint\n" +
		"  " + CmdSkip + "                      give up on the question\n" +
		"  " + CmdVote + " <n>                  vote for an upload\n" +
		"  " + CmdScores + "                    scoreboard\n" +
		"  " + CmdRefresh + "                   reload the event status\n" +
		"  " + CmdSync + "                      deliver queued answers now\n" +
		"  " + CmdStatus + "                    session and sync status\n" +
		"  " + CmdLeave + "                     leave the event\n" +
		"  " + CmdQuit + "\n"

	TextNotJoined       = "Join an event to play."
	TextTeamDeleted     = emoji.BrokenHeart.String() + " Your team was removed by the organizers. Register a new one."
	TextResume          = emoji.Joystick.String() + " A session is waiting, type " + CmdStart + " to continue."
	TextNoAnswerKey     = "The answer for this question is not loaded yet, try " + CmdRefresh + "."
	TextCorrect         = emoji.CheckMarkButton.String() + " Correct!"
	TextWrong           = emoji.CrossMark.String() + " Wrong."
	TextSkipped         = "Question skipped."
	TextUnknownQuestion = emoji.Robot.String() + " This question cannot be shown. Type " + CmdSkip + " to continue."
	TextFinished        = emoji.ChequeredFlag.String() + " All done! Wait for the voting phase, then check " + CmdScores + "."
	TextTimeUp          = emoji.Stopwatch.String() + " Time is up."
	TextNothingToVote   = emoji.PartyPopper.String() + " Thanks for voting."
	TextVoted           = emoji.ThumbsUp.String() + " Vote counted."
	TextLeft            = "You left the event."
	TextLoading         = "Loading..."
	TextNoHint          = "This question has no hint."
)
