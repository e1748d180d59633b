package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit          key.Binding
	reload        key.Binding
	toggleHelp    key.Binding
	moveLeft      key.Binding
	moveRight     key.Binding
	moveUp        key.Binding
	moveDown      key.Binding
	grabTask      key.Binding
	addTask       key.Binding
	taskInfo      key.Binding
	editTask      key.Binding
	deleteTask    key.Binding
	newProcess    key.Binding
	nextProcess   key.Binding
	prevProcess   key.Binding
	timelineView  key.Binding
	addComment    key.Binding
	toggleItem    key.Binding
	yankTask      key.Binding
	moveTaskLeft  key.Binding
	moveTaskRight key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:      key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		grabTask:      key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "grab/drop task")),
		addTask:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		taskInfo:      key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "task info")),
		editTask:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit task")),
		deleteTask:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete task")),
		newProcess:    key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "new process")),
		nextProcess:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next process")),
		prevProcess:   key.NewBinding(key.WithKeys("shift+tab", "backtab"), key.WithHelp("shift+tab", "previous process")),
		timelineView:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "timeline view")),
		addComment:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "add comment")),
		toggleItem:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "toggle checklist item")),
		yankTask:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy task ref")),
		moveTaskLeft:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move task left")),
		moveTaskRight: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move task right")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.grabTask, k.addTask, k.taskInfo, k.timelineView, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.grabTask, k.addTask, k.taskInfo, k.editTask, k.deleteTask, k.newProcess, k.timelineView, k.reload, k.quit},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.moveTaskLeft, k.moveTaskRight, k.nextProcess, k.prevProcess},
		{k.addComment, k.toggleItem, k.yankTask, k.toggleHelp},
	}
}
