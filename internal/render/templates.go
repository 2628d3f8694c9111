package render

const conversationTemplate = `
{{- define "turn" -}}
<div class="eai-chat-message eai-chat-{{.Role}}">
  <strong class="eai-chat-role">{{roleLabel .Role}}:</strong>
  <span class="eai-chat-text">{{excerpt .Role .Text}}</span>
</div>
{{- end -}}

{{- define "conversation" -}}
<div class="eai-chat-container" data-widget-id="{{.WidgetID}}">
  <div class="eai-chat-log" id="{{chatLogID .WidgetID}}">
    {{- range .Turns}}
    {{template "turn" .}}
    {{- end}}
  </div>
  {{- if .HasModelTurn}}
  <div class="eai-chat-actions">
    <button type="button" class="eai-view-full" data-widget-id="{{.WidgetID}}">View Full Response / Copy</button>
  </div>
  {{- end}}
  <form class="eai-follow-up-form" data-widget-id="{{.WidgetID}}">
    <textarea id="{{inputID .WidgetID}}" class="eai-follow-up-input" name="prompt" rows="2" placeholder="{{.Placeholder | default "Ask for changes or continue the conversation..."}}"></textarea>
    <button type="submit" id="{{submitID .WidgetID}}" class="eai-follow-up-submit">Send</button>
  </form>
</div>
{{- end -}}

{{- define "loading" -}}
<div class="eai-loading" data-widget-id="{{.}}">
  <span class="eai-spinner" aria-hidden="true"></span>
  <span>Generating design ideas...</span>
</div>
{{- end -}}

{{- define "thinking" -}}
<div class="eai-chat-message eai-chat-model eai-thinking" id="{{indicatorID .}}">
  <strong class="eai-chat-role">{{roleLabel "model"}}:</strong>
  <em>Thinking...</em>
</div>
{{- end -}}

{{- define "error" -}}
<div class="eai-error" role="alert">{{.}}</div>
{{- end -}}

{{- define "error-inline" -}}
<div class="eai-chat-message eai-chat-error" role="alert">{{.}}</div>
{{- end -}}

{{- define "modal" -}}
<div class="eai-modal" id="{{modalID}}">
  <div class="eai-modal-content" role="dialog" aria-modal="true">
    <button type="button" class="eai-modal-close" aria-label="Close">&times;</button>
    <h3 class="eai-modal-title">Full AI Response</h3>
    <pre class="eai-modal-text">{{.Text}}</pre>
    <button type="button" class="eai-modal-copy" id="{{modalCopyID}}">{{.CopyLabel | default "Copy"}}</button>
  </div>
</div>
{{- end -}}
`
