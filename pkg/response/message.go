package response

// 对外提示文案
// 所有业务失败都通过 HTTP 200 + success=false 返回，调用方只看 body
const (
	MsgPostCreated    = "New blog post added successfully"
	MsgPostUpdated    = "Blog post updated"
	MsgPostDeleted    = "Blog deleted successfully"
	MsgCommentAdded   = "Comment added"
	MsgGeneric        = "Something went wrong! Please try again"
	MsgGenericWrite   = "Something went wrong! Please try again."
	MsgListFailed     = "Failed to fetch blog posts. Please try again"
	MsgDetailsFailed  = "Failed to fetch the blog details! Please try again"
	MsgUpdateFailed   = "Failed to update the post! Please try again"
	MsgDeleteFailed   = "Failed to delete the blog! Please try again"
	MsgCategoryFailed = "Failed to fetch data! Please try again"
	MsgSearchFailed   = "Failed to search results"
	MsgNotAuthor      = "You can only delete your own posts"
	MsgUploadFailed   = "Failed to upload the image! Please try again"

	MsgUnauthorized    = "Unauthorized"
	MsgTooManyRequests = "Too many requests"
)
