package internal

// NoticeLevel classifies a user-visible notification
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
)

// Notice is a transient notification for the presentation surface
type Notice struct {
	Level       NoticeLevel
	Title       string
	Description string
}

// Notifier receives notices raised by the session state
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

var (
	noticeNoDataset = Notice{
		Level:       NoticeError,
		Title:       "No Dataset Selected",
		Description: "Please select or upload a dataset before sending a query.",
	}
	noticeQueryFailed = Notice{
		Level:       NoticeError,
		Title:       "Error",
		Description: "Failed to process your query. Please try again.",
	}
	noticeListFailed = Notice{
		Level:       NoticeError,
		Title:       "Error",
		Description: "Could not fetch existing datasets.",
	}
	noticeInvalidUpload = Notice{
		Level:       NoticeError,
		Title:       "Invalid file type",
		Description: "Please upload a .zip file containing your dataset.",
	}
	noticeUploadFailed = Notice{
		Level:       NoticeError,
		Title:       "Upload failed",
		Description: "There was an error uploading your dataset. Please try again.",
	}
	noticeUploaded = Notice{
		Level:       NoticeSuccess,
		Title:       "Dataset uploaded successfully!",
		Description: "You can now start analyzing your data.",
	}
)
