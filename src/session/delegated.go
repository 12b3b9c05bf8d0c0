package session

import (
	"screen-chat-llm/src/clipboard"
	"screen-chat-llm/src/singleinstance"
)

// DelegatedTarget delivers the reply back over a run-once client connection.
// In stdout mode the reply text travels over the wire; in clipboard mode the
// resident writes the clipboard itself and sends an empty success.
type DelegatedTarget struct {
	Conn           singleinstance.Conn
	OutputToStdout bool
}

func (t DelegatedTarget) OnSuccess(reply string) error {
	if t.OutputToStdout {
		return t.Conn.RespondSuccess(reply)
	}
	if err := clipboard.Write(reply); err != nil {
		return err
	}
	return t.Conn.RespondSuccess("")
}

func (t DelegatedTarget) OnFailure(err error) error {
	return t.Conn.RespondError(err.Error())
}
