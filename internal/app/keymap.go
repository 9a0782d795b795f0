package app

// Key binding constants used in handleKey.
const (
	KeyQuit        = "q"
	KeyQuitUpper   = "Q"
	KeyCtrlC       = "ctrl+c"
	KeyCommentMode = "c"
	KeyGeneral     = "g"
	KeyZoomIn      = "+"
	KeyZoomInAlt   = "="
	KeyZoomOut     = "-"
	KeyZoomReset   = "0"
	KeyUp          = "up"
	KeyDown        = "down"
	KeyLeft        = "left"
	KeyRight       = "right"
	KeyNextPin     = "n"
	KeyPrevPin     = "p"
	KeyJ           = "j"
	KeyK           = "k"
	KeyFilter      = "f"
	KeyResolve     = "r"
	KeyEnter       = "enter"
	KeyReply       = "y"
	KeyEsc         = "esc"

	// Draft controls are chorded so plain keys stay text.
	KeySubmit      = "ctrl+s"
	KeyRecord      = "ctrl+r"
	KeyRetryUpload = "ctrl+u"
	KeyDiscard     = "ctrl+x"
)

// panStep is how far one arrow press scrolls, in cells.
const panStep = 2
