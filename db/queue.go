package db

import "github.com/nickyhof/CommitORM/builder"

// queue holds pending commands in FIFO order.
type queue struct {
	commands []builder.Command
}

func (q *queue) push(cmd builder.Command) {
	q.commands = append(q.commands, cmd)
}

func (q *queue) pop() (builder.Command, bool) {
	if len(q.commands) == 0 {
		return builder.Command{}, false
	}
	cmd := q.commands[0]
	q.commands[0] = builder.Command{}
	q.commands = q.commands[1:]
	return cmd, true
}

func (q *queue) len() int {
	return len(q.commands)
}

func (q *queue) items() []builder.Command {
	return append([]builder.Command(nil), q.commands...)
}
